package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/edtypes"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/slatejson"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/tree"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/export"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/metrics"
)

var errQuit = errors.New("quit")

const helpText = `commands:
  type <text>             insert text at the cursor
  enter                   split the block
  backspace               delete backward
  select <a> [<f>]        move selection, point is path:offset (0.0:3)
  mark <mark>             toggle bold|italic|underline|code|strikethrough
  block <format>          toggle block type, list type or align
  paste-html <html>       paste html
  paste-text <text>       paste plain text, \n starts a new block
  copy                    print selected fragment
  show                    print document json and selection
  md                      print document as markdown
  history                 print recorded changes
  metrics                 print counters
  quit`

// session связывает строковые команды с редактором.
type session struct {
	ed       *editor.Editor
	history  *editor.MemoryRecorder
	gatherer prometheus.Gatherer
	out      io.Writer
}

// exec выполняет одну команду и затем отложенную задачу редактора.
func (s *session) exec(line string) error {
	cmd, arg, _ := strings.Cut(strings.TrimLeft(line, " \t"), " ")
	defer s.ed.RunPending()

	switch cmd {
	case "":
	case "type":
		s.ed.InsertText(arg)
	case "enter":
		s.ed.InsertBreak()
	case "backspace":
		s.ed.DeleteBackward()
	case "select":
		r, err := parseRange(arg)
		if err != nil {
			return err
		}
		s.ed.Select(r)
	case "mark":
		s.ed.RequestToggleMark(edtypes.Mark(strings.TrimSpace(arg)))
	case "block":
		s.ed.RequestToggleBlock(strings.TrimSpace(arg))
	case "paste-html":
		s.ed.InsertData(editor.DataTransfer{HTML: arg})
	case "paste-text":
		s.ed.InsertData(editor.DataTransfer{Text: strings.ReplaceAll(arg, `\n`, "\n")})
	case "copy":
		dt := s.ed.CopyFragment()
		fmt.Fprintf(s.out, "text: %q\n", dt.Text)
		fmt.Fprintf(s.out, "markdown: %q\n", dt.Markdown)
		fmt.Fprintf(s.out, "fragment: %s\n", dt.Fragment)
	case "show":
		return s.show()
	case "md":
		text, err := export.Markdown(s.ed.Document().Children)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, text)
	case "history":
		for _, c := range s.history.Changes() {
			fmt.Fprintf(s.out, "%s %s %s ops=%d\n", c.At.Format("15:04:05.000"), c.ID, c.Action, len(c.Ops))
		}
	case "metrics":
		if s.gatherer == nil {
			fmt.Fprintln(s.out, "metrics disabled")
			return nil
		}
		return metrics.WriteText(s.out, s.gatherer)
	case "help":
		fmt.Fprintln(s.out, helpText)
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func (s *session) show() error {
	data, err := slatejson.Serialize(s.ed.Document())
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, string(data))
	if sel := s.ed.Selection(); sel != nil {
		fmt.Fprintf(s.out, "selection: %s\n", sel)
	}
	if marks := s.ed.ActiveMarks().Sorted(); len(marks) > 0 {
		fmt.Fprintf(s.out, "marks: %v\n", marks)
	}
	if s.ed.HasPending() {
		fmt.Fprintln(s.out, "pending task")
	}
	return nil
}

// parseRange разбирает "a" или "a f", где точка записана как 0.1:4.
func parseRange(arg string) (tree.Range, error) {
	fields := strings.Fields(arg)
	if len(fields) == 0 || len(fields) > 2 {
		return tree.Range{}, fmt.Errorf("select expects one or two points, got %q", arg)
	}
	anchor, err := parsePoint(fields[0])
	if err != nil {
		return tree.Range{}, err
	}
	focus := anchor
	if len(fields) == 2 {
		if focus, err = parsePoint(fields[1]); err != nil {
			return tree.Range{}, err
		}
	}
	return tree.Range{Anchor: anchor, Focus: focus}, nil
}

func parsePoint(raw string) (tree.Point, error) {
	rawPath, rawOffset, ok := strings.Cut(raw, ":")
	if !ok {
		return tree.Point{}, fmt.Errorf("point %q: want path:offset", raw)
	}
	offset, err := strconv.Atoi(rawOffset)
	if err != nil || offset < 0 {
		return tree.Point{}, fmt.Errorf("point %q: bad offset", raw)
	}
	var path tree.Path
	for _, part := range strings.Split(rawPath, ".") {
		i, err := strconv.Atoi(part)
		if err != nil || i < 0 {
			return tree.Point{}, fmt.Errorf("point %q: bad path", raw)
		}
		path = append(path, i)
	}
	return tree.Point{Path: path, Offset: offset}, nil
}
