package dao

// Parameter filters stored records on one field: Value is either a single
// accepted string or a []string of alternatives.
type Parameter struct {
	Name  string
	Value interface{}
}

// NewParameter returns a filter on name accepting any of values
func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}

// Accepts reports whether value satisfies the parameter. A Value of any
// other type accepts everything.
func (p *Parameter) Accepts(value string) bool {
	switch accepted := p.Value.(type) {
	case string:
		return value == accepted
	case []string:
		for _, candidate := range accepted {
			if value == candidate {
				return true
			}
		}
		return false
	}
	return true
}
