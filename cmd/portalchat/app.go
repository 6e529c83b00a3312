package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog"

	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/apierr"
	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/models"
	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/service"
	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/store"
)

// app is the terminal client built on the chat core. All core mutation
// happens in the services; the UI only renders ChatState and forwards
// user intent.
type app struct {
	ctx   context.Context
	actor models.Actor
	state *store.ChatState
	log   zerolog.Logger

	rooms    *service.RoomService
	sync     *service.SyncService
	presence *service.PresenceService
	receipts *service.ReceiptService

	ui        *tview.Application
	roomsList *tview.List
	contacts  *tview.List
	chatView  *tview.TextView
	input     *tview.InputField
	statusBar *tview.TextView

	mu          sync.Mutex
	roomIDs     []int64
	colleagues  []models.Colleague
	currentRoom int64

	ticker     *time.Ticker
	tickerDone chan struct{}
}

func newApp(ctx context.Context, actor models.Actor, state *store.ChatState, rooms *service.RoomService, syncSvc *service.SyncService, presence *service.PresenceService, receipts *service.ReceiptService, log zerolog.Logger) *app {
	return &app{
		ctx:      ctx,
		actor:    actor,
		state:    state,
		log:      log,
		rooms:    rooms,
		sync:     syncSvc,
		presence: presence,
		receipts: receipts,
	}
}

func (a *app) run() error {
	a.ui = tview.NewApplication()

	a.roomsList = tview.NewList().ShowSecondaryText(false)
	a.roomsList.SetBorder(true).SetTitle(" Rooms (n:new d:delete b:broadcast) ")
	a.roomsList.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		a.selectRoomAt(index)
	})
	a.roomsList.SetInputCapture(a.roomKeys)

	a.contacts = tview.NewList().ShowSecondaryText(false)
	a.contacts.SetBorder(true).SetTitle(" Colleagues (Enter:chat) ")
	a.contacts.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		a.openDirectRoomAt(index)
	})

	a.chatView = tview.NewTextView().SetDynamicColors(true).SetWordWrap(true)
	a.chatView.SetBorder(true).SetTitle(" Messages ")

	a.input = tview.NewInputField().SetLabel("> ")
	a.input.SetChangedFunc(func(string) {
		// Keystroke activity holds back read-receipt flushes.
		a.receipts.SetComposing()
	})
	a.input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			a.sendCurrent()
		}
	})

	a.statusBar = tview.NewTextView().SetDynamicColors(true)
	a.statusBar.SetText(fmt.Sprintf(" %s | Tab:switch panel | Ctrl-C:quit", a.actor.Name))

	left := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.roomsList, 0, 2, true).
		AddItem(a.contacts, 0, 1, false)
	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.chatView, 0, 1, false).
		AddItem(a.input, 1, 0, false)
	root := tview.NewFlex().
		AddItem(left, 32, 0, true).
		AddItem(right, 0, 1, false)
	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(root, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.ui.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyTab {
			a.cycleFocus()
			return nil
		}
		return event
	})

	a.sync.SetOnMerge(a.onMerge)
	a.startTicker()
	defer a.stopTicker()

	go a.initialLoad()

	return a.ui.SetRoot(layout, true).SetFocus(a.roomsList).Run()
}

// onMerge runs on every merge of every refresh path: the receipt
// coordinator scans the room, then the affected views redraw.
func (a *app) onMerge(roomID int64, added int) {
	a.receipts.Observe(roomID)
	a.ui.QueueUpdateDraw(func() {
		a.mu.Lock()
		current := a.currentRoom
		a.mu.Unlock()
		if roomID == current {
			a.renderMessages()
		}
		if added > 0 {
			a.renderRooms()
		}
	})
}

func (a *app) initialLoad() {
	if list, err := a.presence.SeedColleagues(a.ctx); err == nil {
		a.mu.Lock()
		a.colleagues = list
		a.mu.Unlock()
	}
	if _, err := a.rooms.ListRooms(a.ctx); err != nil {
		a.setStatus("[red]room list unavailable, showing cached rooms[-]")
	}
	a.ui.QueueUpdateDraw(func() {
		a.renderRooms()
		a.renderContacts()
	})
}

func (a *app) reseedContacts() {
	list, err := a.presence.SeedColleagues(a.ctx)
	if err != nil {
		return
	}
	a.mu.Lock()
	a.colleagues = list
	a.mu.Unlock()
	a.ui.QueueUpdateDraw(a.renderContacts)
}

func (a *app) startTicker() {
	a.ticker = time.NewTicker(time.Second)
	a.tickerDone = make(chan struct{})
	go func() {
		for {
			select {
			case <-a.tickerDone:
				return
			case <-a.ticker.C:
				a.ui.QueueUpdateDraw(func() {
					a.renderContacts()
					a.renderRooms()
				})
			}
		}
	}()
}

func (a *app) stopTicker() {
	a.ticker.Stop()
	close(a.tickerDone)
}

func (a *app) cycleFocus() {
	switch {
	case a.roomsList.HasFocus():
		a.ui.SetFocus(a.contacts)
		// Reopening the panel re-seeds presence so stale entries from a
		// dropped push channel heal on the next glance.
		go a.reseedContacts()
	case a.contacts.HasFocus():
		a.ui.SetFocus(a.input)
	default:
		a.ui.SetFocus(a.roomsList)
	}
}

func (a *app) roomKeys(event *tcell.EventKey) *tcell.EventKey {
	switch event.Rune() {
	case 'n':
		a.ui.SetFocus(a.contacts)
		return nil
	case 'b':
		go a.createBroadcastRoom()
		return nil
	case 'd':
		// Read the selection here, on the event loop; the deletion
		// goroutine must not touch the widget.
		index := a.roomsList.GetCurrentItem()
		go a.deleteSelectedRoom(index)
		return nil
	}
	return event
}

func (a *app) selectRoomAt(index int) {
	a.mu.Lock()
	if index < 0 || index >= len(a.roomIDs) {
		a.mu.Unlock()
		return
	}
	roomID := a.roomIDs[index]
	a.currentRoom = roomID
	a.mu.Unlock()

	// Switching rooms moves the poll timer and fetches once immediately.
	a.sync.SetActiveRoom(roomID)
	a.renderMessages()
	a.ui.SetFocus(a.input)
}

func (a *app) openDirectRoomAt(index int) {
	a.mu.Lock()
	if index < 0 || index >= len(a.colleagues) {
		a.mu.Unlock()
		return
	}
	peer := a.colleagues[index]
	a.mu.Unlock()

	go func() {
		room, err := a.rooms.CreateDirectRoom(a.ctx, peer.UserID)
		if err != nil && !apierr.IsConflict(err) {
			a.setStatus(fmt.Sprintf("[red]cannot open chat: %v[-]", err))
			return
		}
		if room.ID == 0 {
			a.setStatus("[red]cannot open chat: existing room not found[-]")
			return
		}
		// A conflict means the room already exists; redirect to it.
		a.mu.Lock()
		a.currentRoom = room.ID
		a.mu.Unlock()
		a.sync.SetActiveRoom(room.ID)
		a.ui.QueueUpdateDraw(func() {
			a.renderRooms()
			a.renderMessages()
			a.ui.SetFocus(a.input)
		})
	}()
}

func (a *app) createBroadcastRoom() {
	room, err := a.rooms.CreateSupervisorBroadcastRoom(a.ctx)
	if err != nil {
		a.setStatus(fmt.Sprintf("[red]broadcast room: %v[-]", err))
		return
	}
	a.mu.Lock()
	a.currentRoom = room.ID
	a.mu.Unlock()
	a.sync.SetActiveRoom(room.ID)
	a.ui.QueueUpdateDraw(func() {
		a.renderRooms()
		a.renderMessages()
	})
}

func (a *app) deleteSelectedRoom(index int) {
	a.mu.Lock()
	if index < 0 || index >= len(a.roomIDs) {
		a.mu.Unlock()
		return
	}
	roomID := a.roomIDs[index]
	a.mu.Unlock()

	if err := a.rooms.DeleteRoom(a.ctx, roomID); err != nil {
		a.setStatus(fmt.Sprintf("[red]%v[-]", err))
		return
	}
	a.mu.Lock()
	if a.currentRoom == roomID {
		a.currentRoom = 0
	}
	a.mu.Unlock()
	if a.sync.ActiveRoom() == roomID {
		a.sync.SetActiveRoom(0)
	}
	a.ui.QueueUpdateDraw(func() {
		a.renderRooms()
		a.renderMessages()
	})
}

// sendCurrent sends the compose input optimistically. On failure the
// text is restored so nothing the user typed is lost.
func (a *app) sendCurrent() {
	a.mu.Lock()
	roomID := a.currentRoom
	a.mu.Unlock()
	if roomID == 0 {
		return
	}

	body := a.input.GetText()
	a.input.SetText("")
	a.renderMessages()

	go func() {
		if _, err := a.sync.Send(a.ctx, roomID, body); err != nil {
			a.log.Warn().Err(err).Msg("send failed")
			a.ui.QueueUpdateDraw(func() {
				a.input.SetText(body)
				a.renderMessages()
			})
			a.setStatus("[red]send failed, message kept in input[-]")
		}
	}()
}

func (a *app) renderRooms() {
	a.mu.Lock()
	defer a.mu.Unlock()

	selected := a.roomsList.GetCurrentItem()
	a.roomsList.Clear()
	rooms := a.state.Rooms()
	a.roomIDs = a.roomIDs[:0]
	for _, r := range rooms {
		a.roomIDs = append(a.roomIDs, r.ID)
		label := a.rooms.RoomTitle(r)
		if n := a.receipts.UnreadCount(r.ID); n > 0 {
			label = fmt.Sprintf("%s (%d)", label, n)
		}
		a.roomsList.AddItem(label, "", 0, nil)
	}
	if selected >= 0 && selected < a.roomsList.GetItemCount() {
		a.roomsList.SetCurrentItem(selected)
	}
}

func (a *app) renderContacts() {
	a.mu.Lock()
	defer a.mu.Unlock()

	selected := a.contacts.GetCurrentItem()
	a.contacts.Clear()
	for _, c := range a.colleagues {
		p := a.presence.Get(c.UserID)
		marker := "[gray]○[-]"
		if p.Online {
			marker = "[green]●[-]"
		}
		label := fmt.Sprintf("%s %s", marker, c.Name)
		if !p.Online && p.LastSeen != nil {
			label += fmt.Sprintf(" [gray](%s)[-]", formatAgo(*p.LastSeen))
		}
		a.contacts.AddItem(label, "", 0, nil)
	}
	if selected >= 0 && selected < a.contacts.GetItemCount() {
		a.contacts.SetCurrentItem(selected)
	}
}

func (a *app) renderMessages() {
	a.mu.Lock()
	roomID := a.currentRoom
	a.mu.Unlock()

	a.chatView.Clear()
	if roomID == 0 {
		fmt.Fprint(a.chatView, "[gray]select a room[-]")
		return
	}

	for _, m := range a.state.Messages(roomID) {
		name := fmt.Sprintf("user %d", m.SenderID)
		if m.SenderID == a.actor.ID {
			name = "me"
		} else if c, ok := a.state.Contact(m.SenderID); ok {
			name = c.Name
		}

		suffix := ""
		if m.Pending() {
			suffix = " [gray]…[-]"
		} else if m.SenderID == a.actor.ID && readByOthers(&m, a.actor.ID) {
			suffix = " [blue]✓✓[-]"
		}
		fmt.Fprintf(a.chatView, "[gray]%s[-] [yellow]%s[-]: %s%s\n",
			m.CreatedAt.Local().Format("15:04"), name, tview.Escape(m.Body), suffix)
	}
	a.chatView.ScrollToEnd()
}

func (a *app) setStatus(text string) {
	a.ui.QueueUpdateDraw(func() {
		a.statusBar.SetText(" " + text)
	})
}

func readByOthers(m *models.Message, self int64) bool {
	for _, r := range m.ReadBy {
		if r.UserID != self {
			return true
		}
	}
	return false
}

func formatAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("Jan 2")
	}
}
