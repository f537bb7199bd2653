package draft

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// TotalState is either Computed from the lines or Overridden with a manual value.
type TotalState struct {
	overridden bool
	value      decimal.Decimal
}

func Computed() TotalState {
	return TotalState{}
}

func Overridden(value decimal.Decimal) TotalState {
	return TotalState{overridden: true, value: value}
}

func (t TotalState) IsOverridden() bool {
	return t.overridden
}

// Resolve returns the manual value when overridden, otherwise computed.
func (t TotalState) Resolve(computed decimal.Decimal) decimal.Decimal {
	if t.overridden {
		return t.value
	}
	return computed
}

func (t TotalState) MarshalJSON() ([]byte, error) {
	if !t.overridden {
		return json.Marshal(map[string]string{"mode": "computed"})
	}
	return json.Marshal(map[string]interface{}{"mode": "overridden", "value": t.value})
}
