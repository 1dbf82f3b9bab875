package criteria

import (
	"github.com/viant/minikernel/service/dao"
)

// Match reports whether the named field values satisfy every parameter.
// A parameter value is either a string or a list of accepted strings;
// parameters naming unknown fields are ignored.
func Match(fields map[string]string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil {
			continue
		}
		value, ok := fields[parameter.Name]
		if !ok {
			continue
		}
		if !parameter.Accepts(value) {
			return false
		}
	}
	return true
}
