package output

import (
	"io"
	"sync"
)

// Placeholders shown while disconnected.
const (
	PlaceholderAccount = "Not connected"
	PlaceholderValue   = "—"
)

// View is what the user currently sees.
type View struct {
	Status         string `json:"status"`
	Error          string `json:"error"`
	Account        string `json:"account"`
	Network        string `json:"network"`
	NativeBalance  string `json:"native_balance"`
	TokenBalance   string `json:"cupcake_balance"`
	ActionsEnabled bool   `json:"actions_enabled"`
}

func disconnectedView() View {
	return View{
		Account:       PlaceholderAccount,
		Network:       PlaceholderValue,
		NativeBalance: PlaceholderValue,
		TokenBalance:  PlaceholderValue,
	}
}

// Event is one status or error line as streamed in JSON mode.
type Event struct {
	Event string `json:"event"`
	Text  string `json:"text"`
}

// Console holds the displayed state and receives every sink call the
// services make. Status and error changes are also written to the debug
// log and, when set, echoed to the live writer.
type Console struct {
	mu    sync.Mutex
	view  View
	debug *DebugLog
	live  *Formatter
}

// NewConsole creates a console in the disconnected state. live may be nil.
func NewConsole(debug *DebugLog, live *Formatter) *Console {
	if debug == nil {
		debug = NewDebugLog(DefaultDebugLogSize, nil)
	}
	return &Console{view: disconnectedView(), debug: debug, live: live}
}

// DebugLog returns the console's debug log.
func (c *Console) DebugLog() *DebugLog {
	return c.debug
}

// SetStatus replaces the status message. Empty clears it.
func (c *Console) SetStatus(text string) {
	c.mu.Lock()
	c.view.Status = text
	c.mu.Unlock()
	if text != "" {
		c.debug.Append("STATUS", text)
		c.echo("status", text)
	}
}

// SetError replaces the error message. Empty clears it.
func (c *Console) SetError(text string) {
	c.mu.Lock()
	c.view.Error = text
	c.mu.Unlock()
	if text != "" {
		c.debug.Append("ERROR", text)
		c.echo("error", text)
	}
}

// SetAccount shows the connected account.
func (c *Console) SetAccount(text string) {
	c.set(func(v *View) { v.Account = text })
}

// SetNetwork shows the connected network.
func (c *Console) SetNetwork(text string) {
	c.set(func(v *View) { v.Network = text })
}

// SetNativeBalance shows the native currency balance.
func (c *Console) SetNativeBalance(text string) {
	c.set(func(v *View) { v.NativeBalance = text })
}

// SetTokenBalance shows the contract balance.
func (c *Console) SetTokenBalance(text string) {
	c.set(func(v *View) { v.TokenBalance = text })
}

// SetActionsEnabled enables or disables the mutating actions.
func (c *Console) SetActionsEnabled(enabled bool) {
	c.set(func(v *View) { v.ActionsEnabled = enabled })
}

// Reset returns every field to its disconnected placeholder and clears
// status and error.
func (c *Console) Reset() {
	c.mu.Lock()
	c.view = disconnectedView()
	c.mu.Unlock()
}

// Detach stops echoing to the live writer. The view and the debug log keep
// being updated.
func (c *Console) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.live = nil
}

// View returns a copy of the displayed state.
func (c *Console) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// RenderView writes the view as a two-column table.
func RenderView(w io.Writer, v View) error {
	t := NewTable()
	t.AddRow("Account:", v.Account)
	t.AddRow("Network:", v.Network)
	t.AddRow("ETH balance:", v.NativeBalance)
	t.AddRow("Cupcakes:", v.TokenBalance)
	if v.Status != "" {
		t.AddRow("Status:", v.Status)
	}
	if v.Error != "" {
		t.AddRow("Error:", v.Error)
	}
	return t.Render(w)
}

func (c *Console) set(fn func(*View)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.view)
}

func (c *Console) echo(kind, text string) {
	c.mu.Lock()
	live := c.live
	c.mu.Unlock()

	if live == nil {
		return
	}
	if live.IsJSON() {
		_ = live.PrintLine(Event{Event: kind, Text: text})
		return
	}
	if kind == "error" {
		_ = live.Printf("! %s\n", text)
		return
	}
	_ = live.Printf("%s\n", text)
}
