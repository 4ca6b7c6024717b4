package shamirfield

// Combinations is a stateful iterator over all k-subsets of {1..n},
// yielding sorted index tuples via a lexicographic next-combination
// algorithm. It replaces the reference generator-based enumerator: no
// coroutine is needed, just a cursor over the combinatorial index space.
type Combinations struct {
	n, k    int
	current []int
	done    bool
	started bool
}

// NewCombinations returns an iterator over all k-subsets of {1, ..., n}.
func NewCombinations(n, k int) *Combinations {
	if k < 0 || k > n {
		return &Combinations{done: true}
	}
	return &Combinations{n: n, k: k}
}

// Next returns the next combination (1-based indexes, ascending) and true,
// or nil and false once all combinations have been exhausted.
func (c *Combinations) Next() ([]int, bool) {
	if c.done {
		return nil, false
	}
	if !c.started {
		c.started = true
		c.current = make([]int, c.k)
		for i := range c.current {
			c.current[i] = i + 1
		}
		if c.k == 0 {
			c.done = true
			return []int{}, true
		}
		return append([]int(nil), c.current...), true
	}

	i := c.k - 1
	for i >= 0 && c.current[i] == c.n-c.k+1+i {
		i--
	}
	if i < 0 {
		c.done = true
		return nil, false
	}
	c.current[i]++
	for j := i + 1; j < c.k; j++ {
		c.current[j] = c.current[j-1] + 1
	}
	return append([]int(nil), c.current...), true
}

// Total returns C(n, k), the number of combinations this iterator will
// produce in total.
func (c *Combinations) Total() int {
	return binomial(c.n, c.k)
}

func binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	result := 1
	for i := 0; i < k; i++ {
		result = result * (n - i) / (i + 1)
	}
	return result
}
