package classify

import (
	"reflect"
	"testing"

	"github.com/l10nbox/l10nbox/resource"
)

func model(role resource.Role, pairs ...string) *resource.Model {
	m := resource.NewModel("xx", role)
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Append(resource.Entry{Key: pairs[i], Value: pairs[i+1]})
	}
	return m
}

func TestClassifyMissingAndRedundant(t *testing.T) {
	src := model(resource.RoleSource,
		"greeting.hello", "Hello",
		"greeting.bye", "Goodbye",
		"menu.open", "Open",
	)
	tgt := model(resource.RoleDerived,
		"greeting.hello", "Hallo",
		"greeting.bye", "", // blank counts as missing
		"obsolete.key", "Alt",
	)

	res := Classify(src, tgt)

	if want := []string{"greeting.bye", "menu.open"}; !reflect.DeepEqual(res.Missing, want) {
		t.Errorf("Missing = %v, want %v", res.Missing, want)
	}
	if want := []string{"obsolete.key"}; !reflect.DeepEqual(res.Redundant, want) {
		t.Errorf("Redundant = %v, want %v", res.Redundant, want)
	}
	if res.Empty() {
		t.Error("Empty() = true for non-clean result")
	}
}

func TestClassifyBlankSourceIgnored(t *testing.T) {
	src := model(resource.RoleSource, "empty.key", "   ")
	tgt := model(resource.RoleDerived)

	res := Classify(src, tgt)
	if len(res.Missing) != 0 {
		t.Errorf("blank source key reported missing: %v", res.Missing)
	}
}

func TestClassifyMetadataExcluded(t *testing.T) {
	src := resource.NewModel("en", resource.RoleSource)
	src.Append(resource.Entry{Key: "@@locale", RawValue: []byte(`"en"`)})
	src.Append(resource.Entry{Key: "title", Value: "Title"})

	tgt := resource.NewModel("de", resource.RoleDerived)
	tgt.Append(resource.Entry{Key: "@@locale", RawValue: []byte(`"de"`)})
	tgt.Append(resource.Entry{Key: "@@generator", RawValue: []byte(`"tool"`)})
	tgt.Append(resource.Entry{Key: "title", Value: "Titel"})

	res := Classify(src, tgt)
	if !res.Empty() {
		t.Errorf("metadata leaked into classification: %+v", res)
	}
}

func TestClassifyDuplicatesUnion(t *testing.T) {
	src := model(resource.RoleSource, "a", "1")
	src.Append(resource.Entry{Key: "a", Value: "again"})

	tgt := model(resource.RoleDerived, "a", "eins", "b", "zwei")
	tgt.Append(resource.Entry{Key: "b", Value: "again"})
	tgt.Append(resource.Entry{Key: "a", Value: "again"})

	res := Classify(src, tgt)
	if want := []string{"a", "b"}; !reflect.DeepEqual(res.Duplicates, want) {
		t.Errorf("Duplicates = %v, want %v", res.Duplicates, want)
	}
}

func TestClassifyIdenticalModelsClean(t *testing.T) {
	src := model(resource.RoleSource, "a", "1", "b", "2")
	tgt := model(resource.RoleDerived, "a", "eins", "b", "zwei")

	if res := Classify(src, tgt); !res.Empty() {
		t.Errorf("expected clean result, got %+v", res)
	}
}
