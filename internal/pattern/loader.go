package pattern

import (
	"fmt"

	"github.com/spf13/viper"
)

// InstitutionsKey is the configuration key holding extra institutions.
const InstitutionsKey = "patterns.institutions"

// LoadInstitutions reads additional institution records from configuration.
// A missing key yields no institutions and no error.
func LoadInstitutions(v *viper.Viper) ([]Institution, error) {
	if v == nil || !v.IsSet(InstitutionsKey) {
		return nil, nil
	}

	var institutions []Institution
	if err := v.UnmarshalKey(InstitutionsKey, &institutions); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", InstitutionsKey, err)
	}

	for i, inst := range institutions {
		if inst.Name == "" {
			return nil, fmt.Errorf("%w: %s[%d] has no name", ErrInvalidRule, InstitutionsKey, i)
		}
		if len(inst.Senders) == 0 && len(inst.Keywords) == 0 {
			return nil, fmt.Errorf("%w: institution %s needs senders or keywords", ErrInvalidRule, inst.Name)
		}
	}
	return institutions, nil
}

// NewRegistryFromConfig builds the default registry extended with any
// institutions declared in configuration.
func NewRegistryFromConfig(v *viper.Viper) (*Registry, error) {
	r := Default()
	extra, err := LoadInstitutions(v)
	if err != nil {
		return nil, err
	}
	if len(extra) > 0 {
		if err := r.AddInstitutions(extra); err != nil {
			return nil, err
		}
	}
	return r, nil
}
