package motionplan

import (
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// Params is a bag of string-valued parameters as they appear in planner configurations.
type Params map[string]string

// Copy returns a copy of the bag.
func (p Params) Copy() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Decode writes the parameters into the mapstructure-tagged fields of target, converting strings to
// the field types. It returns the sorted names of parameters no field took.
func (p Params) Decode(target interface{}) ([]string, error) {
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Metadata:         &md,
		Result:           target,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(map[string]string(p)); err != nil {
		return nil, errors.Wrap(err, "invalid parameters")
	}
	sort.Strings(md.Unused)
	return md.Unused, nil
}

// Encode lists the mapstructure-tagged fields of source as parameters.
func Encode(source interface{}) (Params, error) {
	var m map[string]interface{}
	if err := mapstructure.Decode(source, &m); err != nil {
		return nil, err
	}
	out := Params{}
	for k, v := range m {
		out[k] = cast.ToString(v)
	}
	return out, nil
}
