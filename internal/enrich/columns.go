package enrich

import "fmt"

// MaxNameAttempts bounds the suffix search in UniqueName.
const MaxNameAttempts = 1000

const (
	responseBase     = "response"
	errorMessageBase = "error_message"
	errorTypeBase    = "error_type"
	errorRawBase     = "error_raw"
)

var reservedDescriptions = map[string]string{
	responseBase:     "Raw response from the API in JSON format",
	errorMessageBase: "Error message from the API",
	errorTypeBase:    "Error type (package and type name)",
	errorRawBase:     "Raw error from the API",
}

// UniqueName returns prefix_base (or base when prefix is empty), suffixed with
// _1, _2, ... until it is absent from existing. Exhausting MaxNameAttempts is
// a configuration error.
func UniqueName(base string, existing map[string]struct{}, prefix string) (string, error) {
	if prefix != "" {
		base = prefix + "_" + base
	}
	name := base
	for j := 1; j <= MaxNameAttempts; j++ {
		if _, taken := existing[name]; !taken {
			return name, nil
		}
		name = fmt.Sprintf("%s_%d", base, j)
	}
	return "", fmt.Errorf("%w: no unique name for %q after %d attempts", ErrConfig, base, MaxNameAttempts)
}

// ReservedColumns holds the resolved names of the engine-owned columns.
type ReservedColumns struct {
	Response     string
	ErrorMessage string
	ErrorType    string
	ErrorRaw     string
}

// Names returns the reserved names in canonical order.
func (rc ReservedColumns) Names() []string {
	return []string{rc.Response, rc.ErrorMessage, rc.ErrorType, rc.ErrorRaw}
}

// Descriptions maps each reserved name to its fixed description.
func (rc ReservedColumns) Descriptions() map[string]string {
	return map[string]string{
		rc.Response:     reservedDescriptions[responseBase],
		rc.ErrorMessage: reservedDescriptions[errorMessageBase],
		rc.ErrorType:    reservedDescriptions[errorTypeBase],
		rc.ErrorRaw:     reservedDescriptions[errorRawBase],
	}
}

// ReserveColumns resolves the four reserved names against existing. Each
// resolved name is taken before the next one is computed.
func ReserveColumns(existing []string, prefix string) (ReservedColumns, error) {
	taken := nameSet(existing)
	var rc ReservedColumns
	slots := []struct {
		base string
		dst  *string
	}{
		{responseBase, &rc.Response},
		{errorMessageBase, &rc.ErrorMessage},
		{errorTypeBase, &rc.ErrorType},
		{errorRawBase, &rc.ErrorRaw},
	}
	for _, s := range slots {
		name, err := UniqueName(s.base, taken, prefix)
		if err != nil {
			return ReservedColumns{}, err
		}
		taken[name] = struct{}{}
		*s.dst = name
	}
	return rc, nil
}

func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
