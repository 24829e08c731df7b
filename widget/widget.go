// Package widget describes the bindable input capability a form controller
// reads values from and writes values to.
//
// Element is the minimum every widget provides. Richer behaviour is exposed
// through optional interfaces (Checkable, FileInput, Selector, Focuser,
// Selecter, NativeValidator) discovered with type assertions, so a host can
// bind anything from a plain text box to a platform-native control.
package widget

// Element is a single bindable widget.
type Element interface {
	Name() string
	// Type is the input type ("text", "number", "checkbox", "radio",
	// "select-one", "select-multiple", "file", "date", ...).
	Type() string
	Value() string
	SetValue(string)
	Disabled() bool
}

// Checkable is implemented by checkbox and radio widgets.
type Checkable interface {
	Checked() bool
	SetChecked(bool)
	// HasValueAttr reports whether a value attribute was set explicitly.
	HasValueAttr() bool
}

// File is a file chosen in a file widget.
type File struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type,omitempty"`
}

// FileInput is implemented by file widgets.
type FileInput interface {
	Files() []File
	SetFiles([]File)
}

// Option is one entry of a select widget.
type Option struct {
	Value    string
	Selected bool
}

// Selector is implemented by select widgets.
type Selector interface {
	Options() []Option
	SetSelected(values []string)
}

// Focuser is implemented by widgets that can take focus.
type Focuser interface{ Focus() }

// Selecter is implemented by widgets whose content can be selected.
type Selecter interface{ Select() }

// NativeValidator is implemented by widgets with a platform validity report.
type NativeValidator interface {
	SetCustomValidity(message string)
	ReportValidity() bool
}

// Kind is the extraction strategy for a widget.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindDate
	KindCheckbox
	KindRadio
	KindSelectOne
	KindSelectMultiple
	KindFile
)

var kindNames = [...]string{"text", "number", "date", "checkbox", "radio", "select-one", "select-multiple", "file"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// KindOf maps an input type to its kind. Unknown types are text.
func KindOf(inputType string) Kind {
	switch inputType {
	case "number", "range":
		return KindNumber
	case "date", "datetime-local", "month", "time", "week":
		return KindDate
	case "checkbox":
		return KindCheckbox
	case "radio":
		return KindRadio
	case "select", "select-one":
		return KindSelectOne
	case "select-multiple":
		return KindSelectMultiple
	case "file":
		return KindFile
	}
	return KindText
}

// IsGroupKind reports whether widgets of this kind are bound as a group
// sharing one field name.
func (k Kind) IsGroupKind() bool { return k == KindCheckbox || k == KindRadio }

// Ref is the binding of one field: a single Element, or a group of checkbox or
// radio Elements sharing the field's name.
type Ref struct {
	Element Element
	Group   []Element
}

// Elements returns every bound element, group members first.
func (r Ref) Elements() []Element {
	if len(r.Group) > 0 {
		return r.Group
	}
	if r.Element != nil {
		return []Element{r.Element}
	}
	return nil
}

// First returns the governing element (the first member of a group).
func (r Ref) First() Element {
	if len(r.Group) > 0 {
		return r.Group[0]
	}
	return r.Element
}

// IsZero reports whether nothing is bound.
func (r Ref) IsZero() bool { return r.Element == nil && len(r.Group) == 0 }

// Kind is the kind of the governing element; an unbound ref is text.
func (r Ref) Kind() Kind {
	if el := r.First(); el != nil {
		return KindOf(el.Type())
	}
	return KindText
}

// Contains reports whether el is already part of the binding.
func (r Ref) Contains(el Element) bool {
	for _, cur := range r.Elements() {
		if cur == el {
			return true
		}
	}
	return false
}

// Attach returns r with el added. Checkbox and radio elements accumulate into
// the group; any other element replaces the binding.
func (r Ref) Attach(el Element) Ref {
	if el == nil || r.Contains(el) {
		return r
	}
	if KindOf(el.Type()).IsGroupKind() {
		group := append([]Element(nil), r.Group...)
		if len(group) == 0 && r.Element != nil && KindOf(r.Element.Type()).IsGroupKind() {
			group = append(group, r.Element)
		}
		group = append(group, el)
		return Ref{Element: group[0], Group: group}
	}
	return Ref{Element: el}
}
