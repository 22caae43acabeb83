package tui

import (
	"fmt"
	"strings"

	"github.com/Joseda-hg/taskboard/internal/model"
	"github.com/Joseda-hg/taskboard/internal/task"
	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
)

const (
	viewHeader = "header"
	viewFooter = "footer"
	viewForm   = "form"
	viewHelp   = "help"
)

var stageViews = [model.StageCount]string{"backlog", "todo", "ongoing", "done"}

type UI struct {
	repo     *task.Repository
	userID   string
	userName string
	gui      *gocui.Gui

	columns  [model.StageCount][]model.Task
	selected [model.StageCount]int
	focus    int

	form       *formState
	formEditor *formEditor
	helpActive bool
	status     string
}

type formState struct {
	taskID string
	fields []formField
	index  int
}

type formEditor struct {
	ui *UI
}

func Run(repo *task.Repository, userID, userName string) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := &UI{
		repo:     repo,
		userID:   userID,
		userName: userName,
		gui:      gui,
	}
	ui.formEditor = &formEditor{ui: ui}

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}
	ui.loadTasks()

	if err := gui.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}

	return nil
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	if err := gui.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, u.quit); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'q', gocui.ModNone, u.quitKey); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'r', gocui.ModNone, u.reload); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'a', gocui.ModNone, u.addTask); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'e', gocui.ModNone, u.editTask); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'd', gocui.ModNone, u.deleteTask); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'b', gocui.ModNone, u.moveTaskBack); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'f', gocui.ModNone, u.moveTaskForward); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '?', gocui.ModNone, u.toggleHelp); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", gocui.KeyTab, gocui.ModNone, u.nextColumn); err != nil {
		return err
	}
	for stage := 0; stage < model.StageCount; stage++ {
		stage := stage
		if err := gui.SetKeybinding("", rune('0'+stage), gocui.ModNone, func(gui *gocui.Gui, _ *gocui.View) error {
			return u.jumpToStage(gui, stage)
		}); err != nil {
			return err
		}
	}
	for _, name := range stageViews {
		if err := gui.SetKeybinding(name, gocui.KeyArrowDown, gocui.ModNone, u.moveDown); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, 'j', gocui.ModNone, u.moveDown); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, gocui.KeyArrowUp, gocui.ModNone, u.moveUp); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, 'k', gocui.ModNone, u.moveUp); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, gocui.KeyArrowLeft, gocui.ModNone, u.prevColumn); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, 'h', gocui.ModNone, u.prevColumn); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, gocui.KeyArrowRight, gocui.ModNone, u.nextColumn); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, 'l', gocui.ModNone, u.nextColumn); err != nil {
			return err
		}
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyEnter, gocui.ModNone, u.submitForm); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyEsc, gocui.ModNone, u.cancelForm); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyTab, gocui.ModNone, u.nextFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyArrowDown, gocui.ModNone, u.nextFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyArrowUp, gocui.ModNone, u.prevFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, gocui.KeyEsc, gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, 'q', gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	return nil
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 0, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	headerView.Wrap = true
	u.renderHeader(headerView)

	footerY1 := maxY - 2
	if footerY1 < 1 {
		footerY1 = 1
	}
	footerY0 := footerY1 - 2
	if footerY0 < 1 {
		footerY0 = 1
	}
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	u.renderFooter(footerView)

	bodyTop := 1
	bodyBottom := footerY0 - 1
	if bodyBottom < bodyTop {
		return nil
	}

	columnWidth := max(maxX/model.StageCount, 16)
	for stage, name := range stageViews {
		x0 := stage * columnWidth
		x1 := x0 + columnWidth - 1
		if stage == model.StageCount-1 {
			x1 = maxX - 1
		}
		if x0 >= maxX {
			continue
		}

		columnView, err := gui.SetView(name, x0, bodyTop, min(x1, maxX-1), bodyBottom, 0)
		if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		if goerrors.Is(err, gocui.ErrUnknownView) {
			columnView.Title = model.Stage(stage).String()
		}
		applyViewStyle(columnView, u.focus == stage)
		u.renderColumn(columnView, stage)
	}

	_, _ = gui.SetViewOnTop(viewHeader)
	_, _ = gui.SetViewOnTop(viewFooter)

	if u.form != nil {
		if err := u.showForm(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewForm)
	}

	if u.helpActive {
		if err := u.showHelp(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewHelp)
	}

	if gui.CurrentView() == nil {
		_, _ = gui.SetCurrentView(stageViews[u.focus])
	}

	gui.Cursor = u.form != nil

	return nil
}

func (u *UI) loadTasks() {
	for stage := 0; stage < model.StageCount; stage++ {
		u.columns[stage] = u.repo.FilterByStage(u.userID, model.Stage(stage))
		if u.selected[stage] >= len(u.columns[stage]) {
			u.selected[stage] = max(len(u.columns[stage])-1, 0)
		}
	}
}

func (u *UI) renderHeader(view *gocui.View) {
	view.Clear()
	counts := u.repo.CountsByStage(u.userID)
	total := 0
	for _, count := range counts {
		total += count
	}
	fmt.Fprintf(view, "Task Board | %s | %d tasks", u.userName, total)
}

func (u *UI) renderFooter(view *gocui.View) {
	view.Clear()
	view.SetOrigin(0, 0)
	view.SetCursor(0, 0)

	fmt.Fprintln(view, "a add | e edit | d delete | b back | f forward | 0-3 jump to stage")
	fmt.Fprintln(view, "tab/h/l switch column | j/k select | r reload | ? help | q quit")
	if u.status != "" {
		fmt.Fprint(view, u.status)
	}
}

func (u *UI) renderColumn(view *gocui.View, stage int) {
	view.Clear()
	focused := u.focus == stage
	for i, t := range u.columns[stage] {
		prefix := " "
		if i == u.selected[stage] {
			if focused {
				prefix = ">"
			} else {
				prefix = "*"
			}
		}
		fmt.Fprintf(view, "%s %s\n", prefix, formatTaskSummary(t))
	}
	if focused && len(u.columns[stage]) > 0 {
		view.SetCursor(0, min(u.selected[stage], len(u.columns[stage])-1))
	}
}

func (u *UI) selectedTask() *model.Task {
	column := u.columns[u.focus]
	index := u.selected[u.focus]
	if index >= 0 && index < len(column) {
		return &column[index]
	}
	return nil
}

func (u *UI) moveDown(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.selected[u.focus] < len(u.columns[u.focus])-1 {
		u.selected[u.focus]++
	}
	return nil
}

func (u *UI) moveUp(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.selected[u.focus] > 0 {
		u.selected[u.focus]--
	}
	return nil
}

func (u *UI) nextColumn(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.focus = (u.focus + 1) % model.StageCount
	_, _ = gui.SetCurrentView(stageViews[u.focus])
	return nil
}

func (u *UI) prevColumn(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.focus = (u.focus + model.StageCount - 1) % model.StageCount
	_, _ = gui.SetCurrentView(stageViews[u.focus])
	return nil
}

func (u *UI) reload(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.status = ""
	u.loadTasks()
	return nil
}

func (u *UI) addTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.form = &formState{fields: buildFormFields(nil)}
	return nil
}

func (u *UI) editTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	u.form = &formState{taskID: selected.ID, fields: buildFormFields(selected)}
	return nil
}

func (u *UI) deleteTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	u.repo.Delete(selected.ID)
	u.status = ""
	u.loadTasks()
	return nil
}

func (u *UI) moveTaskBack(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	u.repo.MoveBack(selected.ID)
	u.loadTasks()
	return nil
}

func (u *UI) moveTaskForward(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	u.repo.MoveForward(selected.ID)
	u.loadTasks()
	return nil
}

func (u *UI) jumpToStage(gui *gocui.Gui, stage int) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	u.repo.MoveToStage(selected.ID, stage)
	u.loadTasks()
	return nil
}

func (u *UI) showForm(gui *gocui.Gui) error {
	if u.form == nil {
		return nil
	}

	maxX, maxY := gui.Size()
	width := max(50, maxX/2)
	height := min(8, max(6, maxY/3))
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2
	x1 := x0 + width
	y1 := y0 + height

	view, err := gui.SetView(viewForm, x0, y0, x1, y1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if u.form.taskID != "" {
		view.Title = "Edit Task"
	} else {
		view.Title = "New Task"
	}
	view.Wrap = true
	view.Editable = true
	view.KeybindOnEdit = true
	view.Editor = u.formEditor
	u.renderForm(view)
	_, _ = gui.SetCurrentView(viewForm)
	return nil
}

func (u *UI) submitForm(gui *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}

	input, err := parseFormFields(u.form.fields)
	if err != nil {
		u.status = err.Error()
		return nil
	}
	input.UserID = u.userID

	if u.form.taskID == "" {
		if _, err := u.repo.Create(input); err != nil {
			u.status = err.Error()
			return nil
		}
	} else {
		if err := u.repo.Update(u.form.taskID, updateInputFrom(input)); err != nil {
			u.status = err.Error()
			return nil
		}
	}

	u.form = nil
	u.status = ""
	_ = gui.DeleteView(viewForm)
	_, _ = gui.SetCurrentView(stageViews[u.focus])
	u.loadTasks()
	return nil
}

func (u *UI) cancelForm(gui *gocui.Gui, _ *gocui.View) error {
	u.form = nil
	_ = gui.DeleteView(viewForm)
	_, _ = gui.SetCurrentView(stageViews[u.focus])
	return nil
}

func (u *UI) nextFormField(gui *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index < len(u.form.fields)-1 {
		u.form.index++
	}
	u.renderForm(view)
	return nil
}

func (u *UI) prevFormField(gui *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index > 0 {
		u.form.index--
	}
	u.renderForm(view)
	return nil
}

func (u *UI) renderForm(view *gocui.View) {
	if u.form == nil || view == nil {
		return
	}
	view.Clear()
	for index, field := range u.form.fields {
		prefix := "  "
		if index == u.form.index {
			prefix = "> "
		}
		fmt.Fprintf(view, "%s%s: %s\n", prefix, field.Label, field.Value)
	}
	label := u.form.fields[u.form.index].Label + ": "
	cursorX := len([]rune(label)) + len([]rune(u.form.fields[u.form.index].Value)) + 2
	view.SetCursor(cursorX, u.form.index)
}

func (e *formEditor) Edit(view *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil || ui.form == nil {
		return false
	}
	ui.editField(key, ch, mod)
	ui.renderForm(view)
	return true
}

func (u *UI) editField(key gocui.Key, ch rune, mod gocui.Modifier) {
	field := &u.form.fields[u.form.index]

	if isPriorityField(field.Label) {
		switch key {
		case gocui.KeyArrowRight, gocui.KeySpace:
			field.Value = nextPriority(field.Value)
		case gocui.KeyArrowLeft:
			field.Value = prevPriority(field.Value)
		}
		return
	}

	switch key {
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		runes := []rune(field.Value)
		if len(runes) > 0 {
			field.Value = string(runes[:len(runes)-1])
		}
		return
	case gocui.KeySpace:
		field.Value += " "
		return
	case gocui.KeyCtrlU:
		field.Value = ""
		return
	}

	if ch != 0 && ch != '\n' && ch != '\r' && mod == 0 {
		field.Value += string(ch)
	}
}

func (u *UI) toggleHelp(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() && !u.helpActive {
		return nil
	}
	u.helpActive = !u.helpActive
	return nil
}

func (u *UI) closeHelp(gui *gocui.Gui, _ *gocui.View) error {
	u.helpActive = false
	_ = gui.DeleteView(viewHelp)
	_, _ = gui.SetCurrentView(stageViews[u.focus])
	return nil
}

func (u *UI) showHelp(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(56, maxX/2)
	height := 11
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2
	x1 := x0 + width
	y1 := y0 + height

	view, err := gui.SetView(viewHelp, x0, y0, x1, y1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Help"
		view.Wrap = true
	}
	view.Clear()
	fmt.Fprint(view, helpText())
	_, _ = gui.SetCurrentView(viewHelp)
	return nil
}

func (u *UI) inputActive() bool {
	return u.form != nil || u.helpActive
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	return gocui.ErrQuit
}

func (u *UI) quitKey(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	return gocui.ErrQuit
}

func helpText() string {
	return strings.Join([]string{
		"Navigation:",
		"  tab / h / l or arrows switch column",
		"  j/k or arrows move selection",
		"",
		"Actions:",
		"  a add task | e edit task | d delete task",
		"  b move back | f move forward | 0-3 jump to stage",
		"  enter save (form) | esc cancel (form) | tab next field",
		"",
		"Other:",
		"  r reload | ? help | esc/q close help | q quit",
	}, "\n")
}

func applyViewStyle(view *gocui.View, focused bool) {
	view.Frame = true
	view.Highlight = focused
	view.HighlightInactive = false
	view.SelBgColor = gocui.ColorBlue
	view.SelFgColor = gocui.ColorBlack
	view.InactiveViewSelBgColor = gocui.ColorDefault
	if focused {
		view.FrameColor = gocui.ColorCyan
		view.TitleColor = gocui.ColorCyan
	} else {
		view.FrameColor = gocui.ColorDefault
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
