package rules

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/reoring/formstate"
	"github.com/reoring/formstate/widget"
)

// MaxFileSize fails when a selected file is larger than limit, a size such
// as "2 MB" or "512KiB". An empty message is replaced by one naming the file.
func MaxFileSize(limit, message string) (formstate.Validator, error) {
	max, err := humanize.ParseBytes(limit)
	if err != nil {
		return nil, fmt.Errorf("rules: max file size %q: %w", limit, err)
	}
	return func(_ context.Context, value any, _ map[string]any) (formstate.Result, error) {
		files, _ := value.([]widget.File)
		for _, f := range files {
			if f.Size < 0 || uint64(f.Size) <= max {
				continue
			}
			msg := message
			if msg == "" {
				msg = fmt.Sprintf("%s is %s, larger than %s", f.Name, humanize.Bytes(uint64(f.Size)), humanize.Bytes(max))
			}
			return formstate.Fail(msg), nil
		}
		return formstate.Result{}, nil
	}, nil
}
