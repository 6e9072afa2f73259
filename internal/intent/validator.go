package intent

import (
	"fmt"
)

// rawIntent mirrors the catalog's per-entry shape with loosely typed
// fields so a single malformed intent doesn't abort decoding the whole
// document — the validator below is what turns "wrong shape" into a typed
// error or warning instead of a YAML decode failure.
type rawIntent struct {
	ID                 interface{} `yaml:"id"`
	Name               interface{} `yaml:"name"`
	Status             interface{} `yaml:"status"`
	Version            interface{} `yaml:"version"`
	OwnedScope         interface{} `yaml:"owned_scope"`
	Constraints        interface{} `yaml:"constraints"`
	AcceptanceCriteria interface{} `yaml:"acceptance_criteria"`
	RelatedSpecs       interface{} `yaml:"related_specs"`
	ParentIntent       interface{} `yaml:"parent_intent"`
	Tags               interface{} `yaml:"tags"`
	CreatedAt          interface{} `yaml:"created_at"`
	UpdatedAt          interface{} `yaml:"updated_at"`
}

// validateRaw converts a rawIntent into an Intent, splitting problems into
// errors (which drop the intent) and warnings (which are logged but keep
// it). It mirrors the two lists in the intent catalog's validation design.
func validateRaw(raw rawIntent) (*Intent, []ValidationError, []ValidationError) {
	var errs, warns []ValidationError

	id, ok := asString(raw.ID)
	if !ok || id == "" {
		errs = append(errs, ValidationError{Field: "id", Message: "required"})
	} else if !IDPattern.MatchString(id) {
		errs = append(errs, ValidationError{IntentID: id, Field: "id", Message: fmt.Sprintf("does not match %s", IDPattern.String())})
	}

	name, _ := asString(raw.Name)
	switch {
	case name == "":
		errs = append(errs, ValidationError{IntentID: id, Field: "name", Message: "required"})
	case len(name) < 3:
		errs = append(errs, ValidationError{IntentID: id, Field: "name", Message: "too short (min 3 chars)"})
	case len(name) > 200:
		errs = append(errs, ValidationError{IntentID: id, Field: "name", Message: "too long (max 200 chars)"})
	}

	statusStr, _ := asString(raw.Status)
	status := Status(statusStr)
	if !ValidStatuses[status] {
		errs = append(errs, ValidationError{IntentID: id, Field: "status", Message: fmt.Sprintf("unknown status %q", statusStr)})
	}

	scope, scopeOK := asStringSlice(raw.OwnedScope)
	if !scopeOK || len(scope) == 0 {
		errs = append(errs, ValidationError{IntentID: id, Field: "owned_scope", Message: "must be a non-empty array"})
	}

	constraints, constraintsOK := asStringSlice(raw.Constraints)
	if raw.Constraints != nil && !constraintsOK {
		errs = append(errs, ValidationError{IntentID: id, Field: "constraints", Message: "must be an array"})
	}

	acceptance, acceptanceOK := asStringSlice(raw.AcceptanceCriteria)
	if raw.AcceptanceCriteria != nil && !acceptanceOK {
		errs = append(errs, ValidationError{IntentID: id, Field: "acceptance_criteria", Message: "must be an array"})
	}

	createdAt, _ := asString(raw.CreatedAt)
	updatedAt, _ := asString(raw.UpdatedAt)
	if createdAt == "" {
		errs = append(errs, ValidationError{IntentID: id, Field: "created_at", Message: "required"})
	}
	if updatedAt == "" {
		errs = append(errs, ValidationError{IntentID: id, Field: "updated_at", Message: "required"})
	}

	version := 1
	if raw.Version != nil {
		if v, ok := asInt(raw.Version); ok && v > 0 {
			version = v
		} else {
			warns = append(warns, ValidationError{IntentID: id, Field: "version", Message: "malformed, defaulting to 1"})
		}
	}

	var relatedSpecs []RelatedSpec
	if raw.RelatedSpecs != nil {
		items, ok := raw.RelatedSpecs.([]interface{})
		if !ok {
			warns = append(warns, ValidationError{IntentID: id, Field: "related_specs", Message: "malformed, ignoring"})
		} else {
			for _, item := range items {
				m, ok := item.(map[string]interface{})
				if !ok {
					warns = append(warns, ValidationError{IntentID: id, Field: "related_specs", Message: "malformed entry, skipped"})
					continue
				}
				typeStr, _ := asString(m["type"])
				refStr, _ := asString(m["ref"])
				if !validRelatedSpecTypes[RelatedSpecType(typeStr)] || refStr == "" {
					warns = append(warns, ValidationError{IntentID: id, Field: "related_specs", Message: "malformed entry, skipped"})
					continue
				}
				relatedSpecs = append(relatedSpecs, RelatedSpec{Type: RelatedSpecType(typeStr), Ref: refStr})
			}
		}
	}

	parentIntent, parentOK := asString(raw.ParentIntent)
	if raw.ParentIntent != nil && !parentOK {
		warns = append(warns, ValidationError{IntentID: id, Field: "parent_intent", Message: "malformed, ignoring"})
		parentIntent = ""
	}

	var tags []string
	if raw.Tags != nil {
		t, ok := asStringSlice(raw.Tags)
		if !ok {
			warns = append(warns, ValidationError{IntentID: id, Field: "tags", Message: "must be an array, ignoring"})
		} else {
			tags = t
		}
	}

	if len(errs) > 0 {
		return nil, errs, warns
	}

	return &Intent{
		ID:                 id,
		Name:               name,
		Status:             status,
		Version:            version,
		OwnedScope:         scope,
		Constraints:        constraints,
		AcceptanceCriteria: acceptance,
		RelatedSpecs:       relatedSpecs,
		ParentIntent:       parentIntent,
		Tags:               tags,
		CreatedAt:          createdAt,
		UpdatedAt:          updatedAt,
	}, errs, warns
}

func asString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	}
	return 0, false
}

func asStringSlice(v interface{}) ([]string, bool) {
	if v == nil {
		return nil, true
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
