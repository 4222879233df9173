package resolve

import (
	"context"

	"github.com/brandscope/competitor-cli/internal/model"
	"github.com/brandscope/competitor-cli/pkg/ddg"
)

// DDGValidator adapts DuckDuckGo reference counting to the HandleValidator
// interface. Strong reference counts settle existence without touching the
// platform; weak counts stay inconclusive so the direct probe gets the
// final word.
type DDGValidator struct {
	client ddg.Client
}

// NewDDGValidator wraps a DDG client as a handle validator.
func NewDDGValidator(client ddg.Client) *DDGValidator {
	return &DDGValidator{client: client}
}

// Name implements HandleValidator.
func (v *DDGValidator) Name() string { return "ddg_validate" }

// ValidateHandle implements HandleValidator.
func (v *DDGValidator) ValidateHandle(ctx context.Context, surface model.Surface, handle string) (Validation, error) {
	res, err := v.client.ValidateHandle(ctx, handle, string(surface))
	if err != nil {
		return Validation{}, err
	}
	return Validation{
		// A handful of independent search references is as close to proof
		// as search gets; fewer could just mean a small account.
		Conclusive: res.IsValid,
		Exists:     res.IsValid,
		Confidence: res.Confidence,
		References: res.References,
		Reason:     res.Reason,
	}, nil
}
