package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli"

	"github.com/scode/cryptvault/collab"
	"github.com/scode/cryptvault/dmtable"
	"github.com/scode/cryptvault/vault"
	"github.com/scode/cryptvault/vaultcrypto"
)

const (
	defaultHashRounds  = 4
	defaultHashMemKiB  = 256 * 1024
	defaultHashThreads = 4
	defaultMaxTries    = 3
)

func openVault(filename string) (*vault.Vault, func(), error) {
	f, err := os.OpenFile(filename, os.O_RDWR, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	v, err := vault.Open(vault.OSFile{File: f}, collab.OSRandomSource{}, vault.Options{})
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return v, func() { f.Close() }, nil
}

func argonParams(hashMem, hashRounds, hashThreads int) vaultcrypto.Argon2Params {
	return vaultcrypto.Argon2Params{
		Rounds:  uint32(hashRounds),
		MemKiB:  uint32(hashMem),
		Threads: uint8(hashThreads),
		BufLen:  vaultcrypto.MinPhashLen,
	}
}

func writeCommand(filename, devname, mapperName string, maxTries, hashMem, hashRounds, hashThreads int) error {
	v, closeFile, err := openVault(filename)
	if err != nil {
		return err
	}
	defer closeFile()

	params := argonParams(hashMem, hashRounds, hashThreads)
	saltDigest, err := v.SaltDigest(nil, devname)
	if err != nil {
		return err
	}

	reader := collab.NewTerminalPrompt("Passphrase (cryptvault): ")
	password, err := reader.ReadPassword()
	if err != nil {
		return err
	}
	phash, err := vaultcrypto.DeriveHash([]byte(password), saltDigest, params)
	if err != nil {
		return err
	}
	if err := v.SetPhash(phash, true); err != nil {
		return err
	}

	if devname != "" {
		return errors.New("device-mapper table capture requires a platform Target; see dmtable.Target")
	}

	fmt.Fprintln(os.Stderr, "Enter text to write into the vault, then EOF (ctrl-D):")
	payload, err := readAllStdin()
	if err != nil {
		return err
	}

	if err := v.WriteSlot(payload); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Write verified.")
	_ = mapperName
	return nil
}

func readAllStdin() ([]byte, error) {
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err != nil {
			break
		}
	}
	return buf, nil
}

func readCommand(filename, devname, mapperName string, maxTries, hashMem, hashRounds, hashThreads int) error {
	v, closeFile, err := openVault(filename)
	if err != nil {
		return err
	}
	defer closeFile()

	params := argonParams(hashMem, hashRounds, hashThreads)
	reader := collab.NewTerminalPrompt("Passphrase (cryptvault): ")

	result, err := collab.ReadWithRetry(v, reader, collab.RetryOptions{
		MaxTries:     maxTries,
		WipeOnMax:    true,
		Params:       params,
		DeviceSerial: devname,
	})
	if err != nil {
		return err
	}

	if devname != "" {
		table, err := dmtable.Unpack(result.Payload)
		if err != nil {
			return fmt.Errorf("recovered data is not a device-mapper table: %w", err)
		}
		fmt.Println(table.Format(devname))
		if mapperName != "" {
			return errors.New("activating the mapping requires a platform Target; see dmtable.Target")
		}
		return nil
	}

	fmt.Println(string(result.Payload))
	if result.NoSpareSlot {
		fmt.Fprintln(os.Stderr, "Warning: only one copy of this data was found; rewrite soon to restore redundancy.")
	}
	return nil
}

func wipeCommand(filename string) error {
	v, closeFile, err := openVault(filename)
	if err != nil {
		return err
	}
	defer closeFile()
	return v.Wipe()
}

func main() {
	app := cli.NewApp()
	app.Name = "cryptvault"
	app.Version = "master"
	app.Usage = "a password-locked, plausibly-deniable secret vault"

	var (
		filename    string
		devname     string
		mapperName  string
		maxTries    int
		hashMem     int
		hashRounds  int
		hashThreads int
	)

	commonFlags := []cli.Flag{
		cli.StringFlag{
			Name:        "file, f",
			Usage:       "path to the vault datafile",
			Required:    true,
			Destination: &filename,
		},
		cli.StringFlag{
			Name:        "device",
			Usage:       "device-mapper device name, if storing a dm-crypt table instead of text",
			Destination: &devname,
		},
		cli.IntFlag{
			Name:        "hash-mem",
			Value:       defaultHashMemKiB,
			Usage:       "argon2 memory cost in KiB",
			Destination: &hashMem,
		},
		cli.IntFlag{
			Name:        "hash-rounds",
			Value:       defaultHashRounds,
			Usage:       "argon2 time cost",
			Destination: &hashRounds,
		},
		cli.IntFlag{
			Name:        "hash-threads",
			Value:       defaultHashThreads,
			Usage:       "argon2 parallelism",
			Destination: &hashThreads,
		},
	}

	app.Commands = []cli.Command{
		{
			Name:  "write",
			Usage: "write a secret into the vault",
			Flags: commonFlags,
			Action: func(c *cli.Context) error {
				return writeCommand(filename, devname, mapperName, maxTries, hashMem, hashRounds, hashThreads)
			},
		},
		{
			Name:  "read",
			Usage: "read a secret from the vault",
			Flags: append(commonFlags,
				cli.StringFlag{
					Name:        "mapper",
					Usage:       "/dev/mapper name to activate a recovered device-mapper table under",
					Destination: &mapperName,
				},
				cli.IntFlag{
					Name:        "max-tries",
					Value:       defaultMaxTries,
					Usage:       "password attempts before wiping the vault",
					Destination: &maxTries,
				},
			),
			Action: func(c *cli.Context) error {
				return readCommand(filename, devname, mapperName, maxTries, hashMem, hashRounds, hashThreads)
			},
		},
		{
			Name:  "wipe",
			Usage: "destroy all slot data irrecoverably",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "file, f",
					Usage:       "path to the vault datafile",
					Required:    true,
					Destination: &filename,
				},
			},
			Action: func(c *cli.Context) error {
				return wipeCommand(filename)
			},
		},
	}

	app.Action = func(c *cli.Context) error {
		return errors.New("command is required; use help to see list of commands")
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
