package app

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"mars_poster/internal/domain"
)

/********** alias registry (single source of truth) **********/

// fieldAliases lists the payload keys accepted for each listing field, in
// preference order. Dotted keys reach into nested objects.
var fieldAliases = map[domain.Field][]string{
	domain.FieldTitle:         {"title", "name", "headline"},
	domain.FieldPropertyType:  {"propertyType", "property_type", "type"},
	domain.FieldPrice:         {"price", "amount", "price.amount"},
	domain.FieldLocation:      {"location", "address", "location.address"},
	domain.FieldContact:       {"contact", "phone", "mobile", "contact.phone"},
	domain.FieldAuctionDate:   {"auctionDate", "auction_date"},
	domain.FieldDescription:   {"description", "desc", "details"},
	domain.FieldArea:          {"area", "size"},
	domain.FieldBuiltUpArea:   {"builtUpArea", "built_up_area", "builtup_area"},
	domain.FieldLandArea:      {"landArea", "land_area"},
	domain.FieldPlotNumber:    {"plotNumber", "plot_number", "plot_no"},
	domain.FieldApartmentName: {"apartmentName", "apartment_name", "apartment"},
	domain.FieldFloorNumber:   {"floorNumber", "floor_number", "floor"},
	domain.FieldFacing:        {"facing"},
	domain.FieldParking:       {"parking"},
	domain.FieldUDS:           {"uds", "UDS"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) (any, bool) {
	if v, ok := m[path]; ok {
		return v, true
	}
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := obj[part]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// scalar renders JSON and YAML scalars as the text a user would have typed.
func scalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	case nil:
		return "", true
	case []any:
		// multi-line fields may arrive as lists
		lines := make([]string, 0, len(t))
		for _, it := range t {
			s, ok := scalar(it)
			if !ok {
				return "", false
			}
			lines = append(lines, s)
		}
		return strings.Join(lines, "\n"), true
	}
	return "", false
}

// topLevelKnown is the set of top-level payload keys the registry consumes.
func topLevelKnown() map[string]struct{} {
	set := make(map[string]struct{}, 48)
	for _, paths := range fieldAliases {
		for _, p := range paths {
			set[p] = struct{}{}
			if i := strings.IndexByte(p, '.'); i >= 0 {
				set[p[:i]] = struct{}{}
			}
		}
	}
	return set
}

/********** payload mapper **********/

// MapEdits turns a loose payload into edits in canonical field order. Keys
// that match no alias are rejected with ErrUnknownField.
func MapEdits(payload map[string]any) ([]Edit, error) {
	known := topLevelKnown()
	var unknown []string
	for k := range payload {
		if _, ok := known[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%s: %w", strings.Join(unknown, ", "), domain.ErrUnknownField)
	}

	edits := make([]Edit, 0, len(payload))
	for _, f := range domain.Fields {
		found, bad := false, false
		for _, p := range fieldAliases[f] {
			v, ok := lookupAny(payload, p)
			if !ok {
				continue
			}
			s, ok := scalar(v)
			if !ok {
				bad = true
				continue
			}
			edits = append(edits, Edit{Field: f, Value: s})
			found = true
			break
		}
		if bad && !found {
			return nil, fmt.Errorf("field %q: value is not text: %w", f, domain.ErrUnknownField)
		}
	}
	return edits, nil
}

// MapRecord overlays payload onto base.
func MapRecord(base domain.ListingRecord, payload map[string]any) (domain.ListingRecord, error) {
	edits, err := MapEdits(payload)
	if err != nil {
		return base, err
	}
	for _, e := range edits {
		if base, err = base.With(e.Field, e.Value); err != nil {
			return base, err
		}
	}
	return base, nil
}
