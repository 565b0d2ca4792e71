// Package interactive provides the interactive command-line interface
// for a glue session.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/cmagness/glue/pkg/loader"
	"github.com/cmagness/glue/pkg/message"
	"github.com/cmagness/glue/pkg/model"
	"github.com/cmagness/glue/pkg/observer"
	"github.com/cmagness/glue/pkg/session"
)

// ErrUsage is returned for malformed commands.
var ErrUsage = errors.New("usage")

// Shell executes interactive commands against a session.
type Shell struct {
	sess      *session.Session
	out       io.Writer
	stateFile string

	recorder *observer.Recorder
	tracker  *observer.ActiveSubsetTracker
	watching bool
}

// New creates a shell writing to out. stateFile is used by save and restore
// when no path is given.
func New(sess *session.Session, out io.Writer, stateFile string) (*Shell, error) {
	s := &Shell{
		sess:      sess,
		out:       out,
		stateFile: stateFile,
		recorder:  observer.NewRecorder(nil),
	}
	s.tracker = observer.NewActiveSubsetTracker(sess.Collection(), s.onActiveChange)

	if err := sess.Attach(s.recorder); err != nil {
		return nil, err
	}
	if err := sess.Attach(s.tracker); err != nil {
		return nil, err
	}
	return s, nil
}

// NewReadline creates the readline instance used by Run.
func NewReadline() (*readline.Instance, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "glue> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return rl, nil
}

// Run starts the interactive command loop on rl. It returns when the user
// quits, input ends or ctx is cancelled.
func (s *Shell) Run(ctx context.Context, rl *readline.Instance) {
	defer rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			return
		}

		quit, err := s.Exec(line)
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
		if quit {
			fmt.Fprintln(s.out, "Exiting...")
			return
		}
	}
}

// Exec runs a single command line. quit is true for the quit command.
func (s *Shell) Exec(line string) (quit bool, err error) {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return false, nil
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()
	case "table", "t":
		err = s.cmdTable(args)
	case "image":
		err = s.cmdImage(args)
	case "list", "ls":
		s.cmdList()
	case "show":
		err = s.cmdShow(args)
	case "remove", "rm":
		err = s.cmdRemove(args)
	case "subset", "new":
		err = s.cmdSubset(args)
	case "group":
		err = s.cmdGroup()
	case "select", "sel":
		err = s.cmdSelect(args)
	case "pick":
		err = s.cmdPick(args)
	case "invert":
		err = s.cmdInvert(args)
	case "rename":
		err = s.cmdRename(args)
	case "delete", "del":
		err = s.cmdDelete(args)
	case "mask":
		err = s.cmdMask(args)
	case "active":
		err = s.cmdActive(args)
	case "save":
		err = s.cmdSave(args)
	case "restore":
		err = s.cmdRestore(args)
	case "hub":
		s.cmdHub()
	case "messages", "msgs":
		err = s.cmdMessages(args)
	case "watch":
		err = s.cmdWatch(args)
	case "quit", "exit", "q":
		return true, nil
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false, err
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
Glue Session Commands:
  Data:
    table <label> <name>=<v,v,...> ...  - Add a table with one column per argument
    image <label> <rows> <cols>         - Add a 2-D ramp image
    list                                - List data sets and their subsets
    show <data>                         - Describe a data set
    remove <data>                       - Remove a data set

  Subsets (<data> is a label or 1-based index, <n> a 1-based subset index):
    subset <data> [label]               - Create a subset
    group                               - Create one subset on every data set
    select <data> <n> <comp> <lo> <hi>  - Select lo <= comp <= hi
    pick <data> <n> <i,j,...>           - Select explicit flat indices
    invert <data> <n>                   - Invert the selection
    rename <data> <n> <label>           - Rename a subset
    delete <data> <n>                   - Delete a subset
    mask <data> <n>                     - Show selected indices
    active [<data> <n> | none]          - Show or set the active subset

  Session:
    save [path]                         - Save the session
    restore [path]                      - Restore a saved session
    hub                                 - Show hub statistics
    messages [count]                    - Show recent hub messages
    watch [on|off]                      - Print hub messages as they arrive
    quit                                - Exit`)
}

func (s *Shell) cmdTable(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: table <label> <name>=<v,v,...> ...", ErrUsage)
	}

	columns := make([]loader.Column, 0, len(args)-1)
	for _, arg := range args[1:] {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return fmt.Errorf("%w: column %q must be name=v,v,...", ErrUsage, arg)
		}
		values, err := parseFloats(raw)
		if err != nil {
			return fmt.Errorf("column %q: %w", name, err)
		}
		columns = append(columns, loader.Column{Name: name, Values: values})
	}

	d, err := loader.NewTabular(args[0], columns)
	if err != nil {
		return err
	}
	return s.appendData(d)
}

func (s *Shell) cmdImage(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("%w: image <label> <rows> <cols>", ErrUsage)
	}
	rows, err := strconv.Atoi(args[1])
	if err != nil || rows <= 0 {
		return fmt.Errorf("%w: invalid rows %q", ErrUsage, args[1])
	}
	cols, err := strconv.Atoi(args[2])
	if err != nil || cols <= 0 {
		return fmt.Errorf("%w: invalid cols %q", ErrUsage, args[2])
	}

	values := make([]float64, rows*cols)
	for i := range values {
		values[i] = float64(i)
	}
	d, err := loader.NewGridded(args[0], []int{rows, cols}, []loader.Column{{Name: "values", Values: values}})
	if err != nil {
		return err
	}
	return s.appendData(d)
}

func (s *Shell) appendData(d *model.Data) error {
	if err := s.sess.Collection().Append(d); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Added %s (%d elements, components: %s)\n",
		d.Label(), d.Size(), strings.Join(d.ComponentNames(), ", "))
	return nil
}

func (s *Shell) cmdList() {
	held := s.sess.Collection().Data()
	if len(held) == 0 {
		fmt.Fprintln(s.out, "No data")
		return
	}

	active := s.sess.Collection().Active()
	for i, d := range held {
		fmt.Fprintf(s.out, "%d. %s %v\n", i+1, d.Label(), d.Shape())
		for j, sub := range d.Subsets() {
			marker := " "
			if sub == active {
				marker = "*"
			}
			fmt.Fprintf(s.out, "   %s%d. %s\n", marker, j+1, sub)
		}
	}
}

func (s *Shell) cmdShow(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: show <data>", ErrUsage)
	}
	d, err := s.findData(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, d.String())
	meta := d.Metadata()
	for _, key := range slices.Sorted(maps.Keys(meta)) {
		fmt.Fprintf(s.out, "  %s: %v\n", key, meta[key])
	}
	return nil
}

func (s *Shell) cmdRemove(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: remove <data>", ErrUsage)
	}
	d, err := s.findData(args[0])
	if err != nil {
		return err
	}
	if err := s.sess.Collection().Remove(d); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Removed %s\n", d.Label())
	return nil
}

func (s *Shell) cmdSubset(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: subset <data> [label]", ErrUsage)
	}
	d, err := s.findData(args[0])
	if err != nil {
		return err
	}
	sub, err := d.NewSubset()
	if err != nil {
		return err
	}
	if len(args) > 1 {
		if err := sub.SetLabel(strings.Join(args[1:], " ")); err != nil {
			return err
		}
	}
	fmt.Fprintf(s.out, "Created %s on %s\n", sub.Label(), d.Label())
	return nil
}

func (s *Shell) cmdGroup() error {
	subsets, err := s.sess.Collection().NewSubsetGroup()
	fmt.Fprintf(s.out, "Created %d subsets\n", len(subsets))
	return err
}

func (s *Shell) cmdSelect(args []string) error {
	if len(args) != 5 {
		return fmt.Errorf("%w: select <data> <n> <comp> <lo> <hi>", ErrUsage)
	}
	sub, err := s.findSubset(args[0], args[1])
	if err != nil {
		return err
	}
	lo, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return fmt.Errorf("%w: invalid lo %q", ErrUsage, args[3])
	}
	hi, err := strconv.ParseFloat(args[4], 64)
	if err != nil {
		return fmt.Errorf("%w: invalid hi %q", ErrUsage, args[4])
	}
	return s.applyState(sub, model.RangeState{Component: args[2], Lo: lo, Hi: hi})
}

func (s *Shell) cmdPick(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("%w: pick <data> <n> <i,j,...>", ErrUsage)
	}
	sub, err := s.findSubset(args[0], args[1])
	if err != nil {
		return err
	}
	var indices []int
	for _, f := range strings.Split(args[2], ",") {
		i, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return fmt.Errorf("%w: invalid index %q", ErrUsage, f)
		}
		indices = append(indices, i)
	}
	return s.applyState(sub, model.NewElementState(indices))
}

func (s *Shell) cmdInvert(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: invert <data> <n>", ErrUsage)
	}
	sub, err := s.findSubset(args[0], args[1])
	if err != nil {
		return err
	}
	return s.applyState(sub, model.InvertState{State: sub.State()})
}

// applyState validates state against the subset's data before setting it,
// so a bad selection never reaches listeners.
func (s *Shell) applyState(sub *model.Subset, state model.SubsetState) error {
	mask, err := state.Mask(sub.Data())
	if err != nil {
		return err
	}
	if err := sub.SetState(state); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s: %d of %d selected\n", sub.Label(), len(model.SelectedIndices(mask)), len(mask))
	return nil
}

func (s *Shell) cmdRename(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("%w: rename <data> <n> <label>", ErrUsage)
	}
	sub, err := s.findSubset(args[0], args[1])
	if err != nil {
		return err
	}
	return sub.SetLabel(strings.Join(args[2:], " "))
}

func (s *Shell) cmdDelete(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: delete <data> <n>", ErrUsage)
	}
	sub, err := s.findSubset(args[0], args[1])
	if err != nil {
		return err
	}
	if err := sub.Delete(); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Deleted %s\n", sub.Label())
	return nil
}

func (s *Shell) cmdMask(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: mask <data> <n>", ErrUsage)
	}
	sub, err := s.findSubset(args[0], args[1])
	if err != nil {
		return err
	}
	mask, err := sub.ToMask()
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s: %v\n", sub.Label(), model.SelectedIndices(mask))
	return nil
}

func (s *Shell) cmdActive(args []string) error {
	switch {
	case len(args) == 0:
		fmt.Fprintf(s.out, "Active: %s (editable: %t)\n", describeActive(s.tracker.Active()), s.tracker.Editable())
		return nil
	case len(args) == 1 && strings.EqualFold(args[0], "none"):
		return s.sess.Collection().SetActive(nil)
	case len(args) == 2:
		sub, err := s.findSubset(args[0], args[1])
		if err != nil {
			return err
		}
		return s.sess.Collection().SetActive(sub)
	default:
		return fmt.Errorf("%w: active [<data> <n> | none]", ErrUsage)
	}
}

func (s *Shell) onActiveChange(active *model.Subset) {
	if s.watching {
		fmt.Fprintf(s.out, "Active subset: %s\n", describeActive(active))
	}
}

func describeActive(sub *model.Subset) string {
	if sub == nil {
		return "none"
	}
	if d := sub.Data(); d != nil {
		return d.Label() + "/" + sub.Label()
	}
	return sub.Label()
}

func (s *Shell) statePath(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if s.stateFile == "" {
		return "", fmt.Errorf("%w: no session file configured, give a path", ErrUsage)
	}
	return s.stateFile, nil
}

func (s *Shell) cmdSave(args []string) error {
	path, err := s.statePath(args)
	if err != nil {
		return err
	}
	if err := s.sess.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Saved %d data sets to %s\n", s.sess.Collection().Len(), path)
	return nil
}

func (s *Shell) cmdRestore(args []string) error {
	path, err := s.statePath(args)
	if err != nil {
		return err
	}
	before := s.sess.Collection().Len()
	if err := s.sess.Load(path); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Restored %d data sets from %s\n", s.sess.Collection().Len()-before, path)
	return nil
}

func (s *Shell) cmdHub() {
	h := s.sess.Hub()
	fmt.Fprintf(s.out, "Hub %s\n", h.ID())
	fmt.Fprintf(s.out, "  Listeners:     %d\n", h.ListenerCount())
	fmt.Fprintf(s.out, "  Subscriptions: %d\n", h.SubscriptionCount())
	fmt.Fprintf(s.out, "  Messages seen: %d (subset %d, data %d, collection %d)\n",
		s.recorder.Count(message.KindMessage),
		s.recorder.Count(message.KindSubset),
		s.recorder.Count(message.KindData),
		s.recorder.Count(message.KindDataCollection))
}

func (s *Shell) cmdMessages(args []string) error {
	count := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: messages [count]", ErrUsage)
		}
		count = n
	}

	msgs := s.recorder.Messages()
	if len(msgs) > count {
		msgs = msgs[len(msgs)-count:]
	}
	for _, m := range msgs {
		fmt.Fprintln(s.out, describeMessage(m))
	}
	return nil
}

func (s *Shell) cmdWatch(args []string) error {
	h := s.sess.Hub()
	on := !s.watching
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "on":
			on = true
		case "off":
			on = false
		default:
			return fmt.Errorf("%w: watch [on|off]", ErrUsage)
		}
	}

	if on && !s.watching {
		if err := h.Subscribe(s, message.KindMessage, s.printMessage, nil); err != nil {
			return err
		}
	}
	if !on && s.watching {
		h.Unsubscribe(s, message.KindMessage)
	}
	s.watching = on
	fmt.Fprintf(s.out, "Watch %s\n", map[bool]string{true: "on", false: "off"}[on])
	return nil
}

func (s *Shell) printMessage(msg message.Message) error {
	fmt.Fprintf(s.out, "<- %s\n", describeMessage(msg))
	return nil
}

// String identifies the shell in hub logs.
func (s *Shell) String() string {
	return "Shell"
}

func describeMessage(m message.Message) string {
	var b strings.Builder
	b.WriteString(m.Kind().String())
	if sender := m.Sender(); sender != nil {
		fmt.Fprintf(&b, " from %s", sender.Label())
	}
	switch msg := m.(type) {
	case message.Attributed:
		if attr := msg.Attribute(); attr != "" {
			fmt.Fprintf(&b, " [%s]", attr)
		}
	case message.DataCollectionActiveChange:
		if active := msg.Active(); active != nil {
			fmt.Fprintf(&b, " -> %s", active.Label())
		} else {
			b.WriteString(" -> none")
		}
	case message.DataCollectionAddMessage:
		fmt.Fprintf(&b, " + %s", msg.Data().Label())
	case message.DataCollectionDeleteMessage:
		fmt.Fprintf(&b, " - %s", msg.Data().Label())
	}
	return b.String()
}

func (s *Shell) findData(ref string) (*model.Data, error) {
	dc := s.sess.Collection()
	if i, err := strconv.Atoi(ref); err == nil {
		held := dc.Data()
		if i < 1 || i > len(held) {
			return nil, fmt.Errorf("no data set %d (have %d)", i, len(held))
		}
		return held[i-1], nil
	}
	return dc.Get(ref)
}

func (s *Shell) findSubset(dataRef, subsetRef string) (*model.Subset, error) {
	d, err := s.findData(dataRef)
	if err != nil {
		return nil, err
	}
	i, err := strconv.Atoi(subsetRef)
	if err != nil {
		return nil, fmt.Errorf("%w: subset index %q", ErrUsage, subsetRef)
	}
	subsets := d.Subsets()
	if i < 1 || i > len(subsets) {
		return nil, fmt.Errorf("%w: %s has %d subsets", model.ErrSubsetNotFound, d.Label(), len(subsets))
	}
	return subsets[i-1], nil
}

func parseFloats(raw string) ([]float64, error) {
	fields := strings.Split(raw, ",")
	values := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid number %q", ErrUsage, f)
		}
		values = append(values, v)
	}
	return values, nil
}
