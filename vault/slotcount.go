package vault

import "math"

// selectSlotCount implements the lognormal-biased activation count
// selector (§4.5): writes are variable and biased above target so an
// attacker cannot assume a fixed population, and at least one slot is
// always active.
func (v *Vault) selectSlotCount(target int) int {
	const sigma = 0.5

	if v.rng.Float64() < 0.2 {
		return target
	}
	if target > 6 && v.rng.Float64() < 0.1 {
		return 1 + v.rng.Intn(v.layout.SlotMax-1)
	}

	value := math.Exp(sigma*v.rng.NormFloat64()) * float64(target)
	if value < float64(target) {
		value *= 3
	}
	if value > float64(v.layout.SlotMax) {
		return v.selectSlotCount(target)
	}
	if value < 1 {
		return 1
	}
	return int(value)
}
