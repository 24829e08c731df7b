package formstate

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/reoring/formstate/fieldpath"
	"github.com/reoring/formstate/internal/deep"
	"github.com/reoring/formstate/internal/dirty"
)

// FieldArrayRules are validated against the list itself. Their error is
// recorded at "<name>.root".
type FieldArrayRules struct {
	Required  *Constraint[bool]
	MinLength *Constraint[int]
	MaxLength *Constraint[int]
	Validate  Validator
}

func (r FieldArrayRules) empty() bool {
	return r.Required == nil && r.MinLength == nil && r.MaxLength == nil && r.Validate == nil
}

// FieldArrayOptions configure Controller.FieldArray.
type FieldArrayOptions struct {
	Rules FieldArrayRules
}

// Item is one entry of a field array. ID is stable across reorderings and
// changes when the entry is replaced.
type Item struct {
	ID    string
	Value any
}

// FieldArray manipulates the list stored at one name. Every operation updates
// the values, moves the errors, touched flags and field registrations of the
// entries along with them, recomputes the list's dirty flags and publishes an
// ArrayEvent.
type FieldArray struct {
	c     *Controller
	name  string
	rules FieldArrayRules
	ids   []string
}

// FieldArray returns the field array at name, creating it on first use. The
// value at name must be a list or absent.
func (c *Controller) FieldArray(name string, opts FieldArrayOptions) (*FieldArray, error) {
	name, err := checkName(name)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	v, ok := getPath(c.values, name)
	list, isList := v.([]any)
	if ok && v != nil && !isList {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotArray, name)
	}
	arr, exists := c.arrays[name]
	if !exists {
		arr = &FieldArray{c: c, name: name}
		arr.resetIDs(len(list))
		c.arrays[name] = arr
	}
	arr.rules = opts.Rules
	if !opts.Rules.empty() {
		ro := RegisterOptions{
			Required:  opts.Rules.Required,
			MinLength: opts.Rules.MinLength,
			MaxLength: opts.Rules.MaxLength,
			Validate:  opts.Rules.Validate,
		}
		if f, ok := c.fields[name]; ok {
			f.opts, f.arrayRoot, f.mounted = ro, true, true
		} else {
			c.addField(&field{name: name, opts: ro, mounted: true, arrayRoot: true})
		}
	}
	c.log.Debug("field array", "field", name, "len", len(list), "rules", !opts.Rules.empty())
	c.unlock()
	return arr, nil
}

// Name returns the list's path.
func (a *FieldArray) Name() string { return a.name }

// Fields returns the entries with their ids.
func (a *FieldArray) Fields() []Item {
	a.c.mu.Lock()
	defer a.c.mu.Unlock()
	list := a.list()
	a.syncIDs(len(list))
	out := make([]Item, len(list))
	for i, v := range list {
		out[i] = Item{ID: a.ids[i], Value: deep.Clone(v)}
	}
	return out
}

// Append adds entries at the end.
func (a *FieldArray) Append(ctx context.Context, values ...any) error {
	return a.apply(ctx, func(n int) ([]int, error) {
		return insertAt(identity(n), n, len(values)), nil
	}, values)
}

// Prepend adds entries at the start.
func (a *FieldArray) Prepend(ctx context.Context, values ...any) error {
	return a.apply(ctx, func(n int) ([]int, error) {
		return insertAt(identity(n), 0, len(values)), nil
	}, values)
}

// Insert adds entries before index; index may equal the length.
func (a *FieldArray) Insert(ctx context.Context, index int, values ...any) error {
	return a.apply(ctx, func(n int) ([]int, error) {
		if index < 0 || index > n {
			return nil, a.outOfRange(index, n)
		}
		return insertAt(identity(n), index, len(values)), nil
	}, values)
}

// Remove deletes the entries at indexes, or every entry when none are given.
func (a *FieldArray) Remove(ctx context.Context, indexes ...int) error {
	return a.apply(ctx, func(n int) ([]int, error) {
		if len(indexes) == 0 {
			return []int{}, nil
		}
		drop := map[int]bool{}
		for _, i := range indexes {
			if i < 0 || i >= n {
				return nil, a.outOfRange(i, n)
			}
			drop[i] = true
		}
		src := make([]int, 0, n)
		for i := 0; i < n; i++ {
			if !drop[i] {
				src = append(src, i)
			}
		}
		return src, nil
	}, nil)
}

// Swap exchanges two entries.
func (a *FieldArray) Swap(ctx context.Context, i, j int) error {
	return a.apply(ctx, func(n int) ([]int, error) {
		if err := a.check(n, i, j); err != nil {
			return nil, err
		}
		src := identity(n)
		src[i], src[j] = src[j], src[i]
		return src, nil
	}, nil)
}

// Move takes the entry at from out of the list and inserts it at to.
func (a *FieldArray) Move(ctx context.Context, from, to int) error {
	return a.apply(ctx, func(n int) ([]int, error) {
		if err := a.check(n, from, to); err != nil {
			return nil, err
		}
		src := identity(n)
		src = slices.Delete(src, from, from+1)
		return slices.Insert(src, to, from), nil
	}, nil)
}

// Update replaces the entry at index. Errors and touched flags of the entry
// are kept; its id changes.
func (a *FieldArray) Update(ctx context.Context, index int, value any) error {
	c := a.c
	c.mu.Lock()
	list := slices.Clone(a.list())
	if index < 0 || index >= len(list) {
		c.mu.Unlock()
		return a.outOfRange(index, len(list))
	}
	a.syncIDs(len(list))
	list[index] = deep.Clone(value)
	a.ids[index] = uuid.NewString()
	a.commit(list, nil)
	c.unlock()
	return a.afterAction(ctx)
}

// Replace swaps the whole list. Errors and touched flags are kept; every id
// changes.
func (a *FieldArray) Replace(ctx context.Context, values []any) error {
	c := a.c
	c.mu.Lock()
	list, _ := deep.Clone(values).([]any)
	if list == nil {
		list = []any{}
	}
	a.resetIDs(len(list))
	a.commit(list, nil)
	c.unlock()
	return a.afterAction(ctx)
}

// apply runs a structural operation. plan maps the current length to the
// source index of every resulting entry, -1 marking entries taken from added
// in order.
func (a *FieldArray) apply(ctx context.Context, plan func(n int) ([]int, error), added []any) error {
	c := a.c
	c.mu.Lock()
	old := a.list()
	a.syncIDs(len(old))
	src, err := plan(len(old))
	if err != nil {
		c.mu.Unlock()
		return err
	}
	list := make([]any, len(src))
	ids := make([]string, len(src))
	next := 0
	for i, s := range src {
		if s < 0 {
			list[i] = deep.Clone(added[next])
			ids[i] = uuid.NewString()
			next++
			continue
		}
		list[i] = old[s]
		ids[i] = a.ids[s]
	}
	a.ids = ids
	a.commit(list, src)
	c.unlock()
	return a.afterAction(ctx)
}

// commit stores list and, when src is given, moves errors, touched flags and
// registrations along with the entries. Must hold c.mu.
func (a *FieldArray) commit(list []any, src []int) {
	c := a.c
	setPath(c.values, a.name, list)
	for _, f := range c.fieldsUnder(a.name) {
		c.bumpGen(f.name)
	}
	if src != nil {
		c.errors = permuteAt(c.errors, a.name, src)
		c.touched = permuteAt(c.touched, a.name, src)
		c.remapFields(a.name, src)
	}
	for _, f := range c.fieldsUnder(a.name) {
		c.bumpGen(f.name)
		c.cancelDelayed(f.name)
	}

	def, _ := getPath(c.defaults, a.name)
	defList, _ := def.([]any)
	if d := dirty.FieldArray(list, defList); d != nil {
		setPath(c.dirty, a.name, d)
	} else {
		unsetPath(c.dirty, a.name)
	}
	c.flags.isDirty = c.computeDirty()

	c.applyUnder(a.name)
	c.publishArray(a.name)
	c.publishValues(a.name, EventSet)
	c.publishState(a.name, TrackIsDirty|TrackDirtyFields|TrackTouchedFields|TrackErrors)
}

// afterAction validates the list once the active mode validates on change.
func (a *FieldArray) afterAction(ctx context.Context) error {
	c := a.c
	c.mu.Lock()
	revalidate := (c.opts.Mode != OnSubmit || c.flags.isSubmitted) && c.opts.ReValidateMode != OnSubmit
	c.mu.Unlock()
	if revalidate {
		if err := a.validateRoot(ctx); err != nil {
			return err
		}
	}
	return c.updateValid(ctx)
}

// validateRoot validates the list itself: through the resolver, scoped to the
// list, or through the list rules.
func (a *FieldArray) validateRoot(ctx context.Context) error {
	c := a.c
	c.mu.Lock()
	gen := c.bumpGen(a.name)
	if c.opts.Resolver != nil {
		call := c.prepareResolver([]string{a.name})
		c.unlock()
		res, err := call.run(ctx)
		if err != nil {
			return err
		}
		c.mu.Lock()
		if gen == c.gens[a.name] {
			c.applyResolverErrors([]string{a.name}, res.Errors)
			c.publishState(a.name, TrackErrors)
		}
		c.unlock()
		return nil
	}
	f, ok := c.fields[a.name]
	if !ok || !f.arrayRoot {
		c.unlock()
		return nil
	}
	job := f.job()
	values := deep.CloneMap(c.values)
	collectAll := c.opts.collectAll()
	c.unlock()

	fe, err := validateField(ctx, job, values, collectAll, false)
	if err != nil {
		return err
	}
	c.mu.Lock()
	if gen == c.gens[a.name] {
		if fe != nil {
			setPath(c.errors, job.errorPath(), *fe)
		} else {
			unsetPath(c.errors, job.errorPath())
		}
		c.publishState(a.name, TrackErrors)
	}
	c.unlock()
	return nil
}

// list returns the stored list. Must hold c.mu.
func (a *FieldArray) list() []any {
	v, _ := getPath(a.c.values, a.name)
	l, _ := v.([]any)
	return l
}

func (a *FieldArray) resetIDs(n int) {
	a.ids = make([]string, n)
	for i := range a.ids {
		a.ids[i] = uuid.NewString()
	}
}

// syncIDs pads or truncates the ids after the list was written through a
// path inside it.
func (a *FieldArray) syncIDs(n int) {
	if len(a.ids) > n {
		a.ids = a.ids[:n]
	}
	for len(a.ids) < n {
		a.ids = append(a.ids, uuid.NewString())
	}
}

func (a *FieldArray) check(n int, idx ...int) error {
	for _, i := range idx {
		if i < 0 || i >= n {
			return a.outOfRange(i, n)
		}
	}
	return nil
}

func (a *FieldArray) outOfRange(i, n int) error {
	return fmt.Errorf("%w: %s[%d] (len %d)", ErrIndexOutOfRange, a.name, i, n)
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func insertAt(src []int, at, count int) []int {
	fresh := make([]int, count)
	for i := range fresh {
		fresh[i] = -1
	}
	return slices.Insert(src, at, fresh...)
}

// permuteAt reorders the list stored at name in tree. Keys of the list node
// that are not indexes (the "root" error of a field array) are kept.
func permuteAt(tree map[string]any, name string, src []int) map[string]any {
	node, ok := getPath(tree, name)
	if !ok {
		return tree
	}
	items, extra := splitList(node)
	out := make([]any, len(src))
	for i, s := range src {
		if s >= 0 && s < len(items) {
			out[i] = items[s]
		}
	}
	unsetPath(tree, name)
	if joined := joinList(out, extra); joined != nil {
		setPath(tree, name, joined)
	}
	return tree
}

// splitList separates the entries of a list node from its non-index keys. A
// node becomes a map once a non-index key is set on it.
func splitList(node any) ([]any, map[string]any) {
	switch t := node.(type) {
	case []any:
		return t, nil
	case map[string]any:
		var items []any
		extra := map[string]any{}
		for k, v := range t {
			i, ok := fieldpath.Index(k)
			if !ok {
				extra[k] = v
				continue
			}
			for len(items) <= i {
				items = append(items, nil)
			}
			items[i] = v
		}
		return items, extra
	}
	return nil, nil
}

func joinList(items []any, extra map[string]any) any {
	n := len(items)
	for n > 0 && items[n-1] == nil {
		n--
	}
	items = items[:n]
	if len(extra) == 0 {
		if n == 0 {
			return nil
		}
		return items
	}
	out := make(map[string]any, n+len(extra))
	for k, v := range extra {
		out[k] = v
	}
	for i, v := range items {
		if v != nil {
			out[strconv.Itoa(i)] = v
		}
	}
	return out
}

// remapFields renames the registrations of list entries under name to their
// new indexes and drops those whose entry was removed. Must hold c.mu.
func (c *Controller) remapFields(name string, src []int) {
	dest := map[int]int{}
	for i, s := range src {
		if s >= 0 {
			dest[s] = i
		}
	}
	depth := len(fieldpath.Parse(name))
	renamed := map[string]*field{}
	unmount := map[string]bool{}
	var order []string
	for _, n := range c.order {
		f := c.fields[n]
		segs := fieldpath.Parse(n)
		idx, isEntry := -1, false
		if n != name && fieldpath.HasPrefix(n, name) && len(segs) > depth {
			idx, isEntry = fieldpath.Index(segs[depth])
		}
		if !isEntry {
			order = append(order, n)
			renamed[n] = f
			unmount[n] = c.unmount[n]
			continue
		}
		to, keep := dest[idx]
		if !keep {
			continue
		}
		segs[depth] = strconv.Itoa(to)
		nn := strings.Join(segs, ".")
		unmount[nn] = c.unmount[n]
		f.name = nn
		order = append(order, nn)
		renamed[nn] = f
	}
	for n, queued := range unmount {
		if !queued {
			delete(unmount, n)
		}
	}
	c.fields = renamed
	c.order = order
	c.unmount = unmount
}
