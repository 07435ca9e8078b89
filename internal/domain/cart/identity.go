package cart

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// VariantSelection maps a variant group ID to the chosen option IDs for that
// group. Equality is set equality per group: option order never matters, and a
// single chosen option is equivalent to a one-element list.
type VariantSelection map[string][]string

// UnmarshalJSON accepts both the compact form ("group": "option") and the
// list form ("group": ["a", "b"]) used by storefront clients.
func (s *VariantSelection) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(VariantSelection, len(raw))
	for group, value := range raw {
		var single string
		if err := json.Unmarshal(value, &single); err == nil {
			out[group] = []string{single}
			continue
		}
		var many []string
		if err := json.Unmarshal(value, &many); err != nil {
			return fmt.Errorf("variant selection for group %q must be a string or list of strings", group)
		}
		out[group] = many
	}
	*s = out
	return nil
}

// Canonical returns a normalized copy: option IDs sorted and deduplicated per
// group, groups with no options dropped.
func (s VariantSelection) Canonical() VariantSelection {
	out := make(VariantSelection, len(s))
	for group, options := range s {
		if len(options) == 0 {
			continue
		}
		seen := make(map[string]struct{}, len(options))
		unique := make([]string, 0, len(options))
		for _, opt := range options {
			if _, ok := seen[opt]; ok {
				continue
			}
			seen[opt] = struct{}{}
			unique = append(unique, opt)
		}
		sort.Strings(unique)
		out[group] = unique
	}
	return out
}

// Equal reports set equality per group between two selections.
func (s VariantSelection) Equal(other VariantSelection) bool {
	return s.Canonical().Key() == other.Canonical().Key()
}

// Key returns the canonical JSON encoding of the selection. encoding/json
// sorts map keys, so two canonical selections encode identically iff they are
// equal. The key doubles as the persisted identity column.
func (s VariantSelection) Key() string {
	if len(s) == 0 {
		return "{}"
	}
	data, err := json.Marshal(map[string][]string(s))
	if err != nil {
		// map[string][]string cannot fail to marshal
		return "{}"
	}
	return string(data)
}

// Value implements driver.Valuer so selections persist as JSONB
func (s VariantSelection) Value() (driver.Value, error) {
	return s.Canonical().Key(), nil
}

// Scan implements sql.Scanner
func (s *VariantSelection) Scan(value interface{}) error {
	if value == nil {
		*s = VariantSelection{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into VariantSelection", value)
	}
	var out map[string][]string
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*s = out
	return nil
}

// ItemIdentity is the canonical identity of a cart line. Two add requests
// resolve to the same line iff their identities are equal: same product, same
// per-group option sets, same normalized instructions, and same branch (nil
// branch meaning "no branch").
type ItemIdentity struct {
	ProductID    uuid.UUID
	Selection    VariantSelection
	Instructions string
	BranchID     *uuid.UUID
}

// NewItemIdentity canonicalizes the raw tuple into an identity. Instructions
// are trimmed with empty normalized to "".
func NewItemIdentity(productID uuid.UUID, selection VariantSelection, instructions string, branchID *uuid.UUID) ItemIdentity {
	return ItemIdentity{
		ProductID:    productID,
		Selection:    selection.Canonical(),
		Instructions: strings.TrimSpace(instructions),
		BranchID:     branchID,
	}
}

// SelectionKey returns the canonical selection encoding used for lookups.
func (i ItemIdentity) SelectionKey() string {
	return i.Selection.Key()
}

// Equal reports whether two identities refer to the same cart line.
func (i ItemIdentity) Equal(other ItemIdentity) bool {
	if i.ProductID != other.ProductID || i.Instructions != other.Instructions {
		return false
	}
	if !branchEqual(i.BranchID, other.BranchID) {
		return false
	}
	return i.SelectionKey() == other.SelectionKey()
}

// OrderedOptionIDs returns every selected option ID in canonical evaluation
// order: groups by sorted key, options sorted within each group. Pricing walks
// options in this order, which makes the "last absolute price wins" rule
// deterministic.
func (i ItemIdentity) OrderedOptionIDs() []string {
	groups := make([]string, 0, len(i.Selection))
	for group := range i.Selection {
		groups = append(groups, group)
	}
	sort.Strings(groups)

	var ids []string
	for _, group := range groups {
		ids = append(ids, i.Selection[group]...)
	}
	return ids
}

// CanonicalOptionIDs returns the selected option IDs that parse as UUIDs, in
// canonical evaluation order. Legacy identifiers (anything else) are dropped;
// they carry no price information and must not fail the request.
func (i ItemIdentity) CanonicalOptionIDs() []uuid.UUID {
	var out []uuid.UUID
	for _, raw := range i.OrderedOptionIDs() {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}

func branchEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
