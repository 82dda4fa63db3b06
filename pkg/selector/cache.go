package selector

// Cache memoizes compiled selector programs by source text so that the same
// jq string appearing on multiple group members within one snapshot is
// compiled exactly once.
type Cache struct {
	byText map[string]*Compiled
}

// NewCache builds a cache by compiling every distinct non-empty selector
// text in texts. It returns the first compile error encountered, naming the
// offending source, so the Config Store can reject the snapshot.
func NewCache(texts []string) (*Cache, error) {
	c := &Cache{byText: make(map[string]*Compiled)}
	for _, t := range texts {
		if t == "" {
			continue
		}
		if _, ok := c.byText[t]; ok {
			continue
		}
		compiled, err := Compile(t)
		if err != nil {
			return nil, err
		}
		c.byText[t] = compiled
	}
	return c, nil
}

// Get returns the compiled program for source, or nil if source is empty
// (always-eligible) or was never registered.
func (c *Cache) Get(source string) *Compiled {
	if c == nil || source == "" {
		return nil
	}
	return c.byText[source]
}

// EvaluateMember evaluates the member's selector (if any) against body.
func (c *Cache) EvaluateMember(selectorSource string, body any) Result {
	if selectorSource == "" {
		return Eligible
	}
	return Evaluate(c.Get(selectorSource), body)
}
