package prompt

import (
	"context"
	"errors"
	"fmt"

	"github.com/ashureev/bank-marketing/internal/domain"
	"github.com/ashureev/bank-marketing/internal/form"
)

// Fill asks for every catalog field in order and stores the answers in ctrl.
// Current values are offered as defaults. A nil validator accepts any text
// for numeric fields.
func Fill(ctx context.Context, d Driver, ctrl *form.Controller, v *form.Validator) error {
	current := ctrl.Snapshot().Values

	for _, def := range domain.Catalog {
		value, err := ask(ctx, d, def, current[def.Name], v)
		if err != nil {
			return fmt.Errorf("%s: %w", def.Name, err)
		}
		if err := ctrl.UpdateField(def.Name, value); err != nil {
			return err
		}
	}
	return nil
}

func ask(ctx context.Context, d Driver, def domain.FieldDef, current string, v *form.Validator) (string, error) {
	message := def.Label + ":"

	if def.Kind == domain.KindEnum {
		idx, err := d.Select(ctx, SelectConfig{
			Message:      message,
			Options:      def.Options,
			DefaultIndex: indexOf(def.Options, current),
			Help:         def.Help,
			PageSize:     len(def.Options),
		})
		if err != nil {
			return "", err
		}
		if idx < 0 || idx >= len(def.Options) {
			return "", errors.New("selection out of range")
		}
		return def.Options[idx], nil
	}

	cfg := InputConfig{
		Message: message,
		Default: current,
		Help:    def.Help,
	}
	if v != nil {
		cfg.Validator = func(raw string) error {
			if issue := v.Check(def.Name, raw); issue != "" {
				return errors.New(def.Label + " " + issue)
			}
			return nil
		}
	}
	return d.Input(ctx, cfg)
}
