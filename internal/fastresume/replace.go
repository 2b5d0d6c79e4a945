package fastresume

import (
	"fmt"
	"regexp"
	"strings"

	"qbtmigrate/internal/logging"
)

// Replacer rewrites a single path string.
type Replacer func(string) string

// NewReplacer builds the substitution used by ReplacePaths. In literal mode
// every occurrence of existing is replaced. In regex mode existing is compiled
// once and replacement is a template whose \1 or \g<name> references expand to
// capture groups. An empty or blank existing matches between every character,
// so it is rejected with ErrEmptyPath.
func NewReplacer(existing, replacement string, useRegex bool) (Replacer, error) {
	if strings.TrimSpace(existing) == "" {
		return nil, fmt.Errorf("existing path: %w", ErrEmptyPath)
	}
	if !useRegex {
		return func(s string) string {
			return strings.ReplaceAll(s, existing, replacement)
		}, nil
	}
	pattern, err := regexp.Compile(existing)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", existing, err)
	}
	template := ExpandTemplate(replacement)
	return func(s string) string {
		return pattern.ReplaceAllString(s, template)
	}, nil
}

// ReplacePaths substitutes existing with replacement in save_path,
// qBt-savePath, qBt-downloadPath, and every mapped_files entry, then writes
// the results through the same path as SetPaths so the backup is taken once.
//
// A record without save_path takes the rewritten qBt-savePath as its primary
// path. Fields the record never had are not created, except that qBt-savePath
// mirrors save_path like SetPaths does.
func (r *Record) ReplacePaths(existing, replacement string, useRegex bool, opts UpdateOptions) error {
	replace, err := NewReplacer(existing, replacement, useRegex)
	if err != nil {
		return err
	}

	save, hasSave := r.SavePath()
	qbt, hasQBt := r.QBtSavePath()
	dl, hasDL := r.DownloadPath()

	var primary, secondary, download *string
	if hasSave && save != "" {
		v := replace(save)
		primary = &v
	}
	if hasQBt {
		v := replace(qbt)
		secondary = &v
		if primary == nil {
			primary = &v
		}
	}
	if primary != nil && secondary == nil {
		secondary = primary
	}
	if hasDL {
		v := replace(dl)
		download = &v
	}

	r.logger.Debug("replacing paths",
		logging.String("existing", existing),
		logging.String("replacement", replacement),
		logging.Bool("regex", useRegex),
		logging.String("target_os", opts.TargetOS.String()),
	)

	p, err := r.planPaths(primary, secondary, download, opts.TargetOS, replace)
	if err != nil {
		return err
	}
	if err := r.commit(p, opts); err != nil {
		return err
	}
	r.logger.Info("fastresume paths replaced")
	return nil
}

// ExpandTemplate converts a backslash-style replacement template into the
// syntax of regexp.Expand. \N and \g<N> or \g<name> become ${N} or ${name},
// \\ becomes a single backslash, \n and \t become control characters, and a
// literal '$' is escaped. Any other backslash is kept as is, so Windows paths
// survive without doubling.
func ExpandTemplate(tmpl string) string {
	var b strings.Builder
	b.Grow(len(tmpl) + 8)
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c == '$' {
			b.WriteString("$$")
			continue
		}
		if c != '\\' || i+1 >= len(tmpl) {
			b.WriteByte(c)
			continue
		}
		next := tmpl[i+1]
		switch {
		case next >= '0' && next <= '9':
			j := i + 1
			for j < len(tmpl) && j < i+3 && tmpl[j] >= '0' && tmpl[j] <= '9' {
				j++
			}
			b.WriteString("${" + tmpl[i+1:j] + "}")
			i = j - 1
		case next == 'g' && i+2 < len(tmpl) && tmpl[i+2] == '<':
			end := strings.IndexByte(tmpl[i+3:], '>')
			if end <= 0 {
				b.WriteByte(c)
				continue
			}
			b.WriteString("${" + tmpl[i+3:i+3+end] + "}")
			i += 3 + end
		case next == '\\':
			b.WriteByte('\\')
			i++
		case next == 'n':
			b.WriteByte('\n')
			i++
		case next == 't':
			b.WriteByte('\t')
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
