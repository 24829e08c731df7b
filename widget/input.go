package widget

import "sync"

// Input is an in-memory widget implementing Element and every optional
// capability. It backs headless forms (formdef, the CLI) and tests.
type Input struct {
	mu        sync.RWMutex
	name      string
	typ       string
	value     string
	valueAttr bool
	checked   bool
	disabled  bool
	files     []File
	options   []Option
	validity  string
	focused   int
	selected  int
	reports   int
}

// InputOption configures an Input.
type InputOption func(*Input)

// WithValue sets the initial value. On checkboxes and radios it is the value
// attribute.
func WithValue(v string) InputOption {
	return func(in *Input) { in.value, in.valueAttr = v, true }
}

// WithChecked marks a checkbox or radio as checked.
func WithChecked() InputOption { return func(in *Input) { in.checked = true } }

// WithDisabled disables the input.
func WithDisabled() InputOption { return func(in *Input) { in.disabled = true } }

// WithOptions sets the entries of a select input.
func WithOptions(opts ...Option) InputOption {
	return func(in *Input) { in.options = append([]Option(nil), opts...) }
}

// WithFiles sets the chosen files of a file input.
func WithFiles(files ...File) InputOption {
	return func(in *Input) { in.files = append([]File(nil), files...) }
}

// NewInput returns an Input of the given type ("" means text).
func NewInput(name, inputType string, opts ...InputOption) *Input {
	if inputType == "" {
		inputType = "text"
	}
	in := &Input{name: name, typ: inputType}
	for _, o := range opts {
		o(in)
	}
	return in
}

func (in *Input) Name() string { return in.name }
func (in *Input) Type() string { return in.typ }

func (in *Input) Value() string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if KindOf(in.typ) == KindSelectOne {
		for _, o := range in.options {
			if o.Selected {
				return o.Value
			}
		}
	}
	return in.value
}

func (in *Input) SetValue(v string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.value = v
	if KindOf(in.typ) == KindSelectOne {
		for i := range in.options {
			in.options[i].Selected = in.options[i].Value == v
		}
	}
}

func (in *Input) Disabled() bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.disabled
}

// SetDisabled toggles the disabled flag.
func (in *Input) SetDisabled(d bool) {
	in.mu.Lock()
	in.disabled = d
	in.mu.Unlock()
}

func (in *Input) Checked() bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.checked
}

func (in *Input) SetChecked(c bool) {
	in.mu.Lock()
	in.checked = c
	in.mu.Unlock()
}

func (in *Input) HasValueAttr() bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.valueAttr
}

func (in *Input) Files() []File {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return append([]File(nil), in.files...)
}

func (in *Input) SetFiles(files []File) {
	in.mu.Lock()
	in.files = append([]File(nil), files...)
	in.mu.Unlock()
}

func (in *Input) Options() []Option {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return append([]Option(nil), in.options...)
}

func (in *Input) SetSelected(values []string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	for i := range in.options {
		in.options[i].Selected = false
		for _, v := range values {
			if in.options[i].Value == v {
				in.options[i].Selected = true
				break
			}
		}
	}
}

func (in *Input) Focus() {
	in.mu.Lock()
	in.focused++
	in.mu.Unlock()
}

// Focused returns how many times Focus was called.
func (in *Input) Focused() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.focused
}

func (in *Input) Select() {
	in.mu.Lock()
	in.selected++
	in.mu.Unlock()
}

// Selections returns how many times Select was called.
func (in *Input) Selections() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.selected
}

func (in *Input) SetCustomValidity(message string) {
	in.mu.Lock()
	in.validity = message
	in.mu.Unlock()
}

// ValidationMessage returns the message last set by SetCustomValidity.
func (in *Input) ValidationMessage() string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.validity
}

func (in *Input) ReportValidity() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.reports++
	return in.validity == ""
}

// Reports returns how many times ReportValidity was called.
func (in *Input) Reports() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.reports
}

var (
	_ Element         = (*Input)(nil)
	_ Checkable       = (*Input)(nil)
	_ FileInput       = (*Input)(nil)
	_ Selector        = (*Input)(nil)
	_ Focuser         = (*Input)(nil)
	_ Selecter        = (*Input)(nil)
	_ NativeValidator = (*Input)(nil)
)
