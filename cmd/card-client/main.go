package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
	"github.com/rs/zerolog/log"

	"cardroom/internal/config"
	"cardroom/internal/identity"
	"cardroom/internal/logging"
	"cardroom/internal/session"
	"cardroom/internal/transport"
)

const (
	actionCreate = "create room"
	actionJoin   = "join room"
	actionTable  = "show table"
	actionPlay   = "play card"
	actionLeave  = "leave room"
	actionQuit   = "quit"
)

func main() {
	_ = godotenv.Load()

	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)

	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatal().Err(err).Msg("load client config failed")
	}

	store, err := identity.Open(cfg.IdentityDB)
	if err != nil {
		log.Fatal().Err(err).Msg("open identity store failed")
	}
	defer store.Close()
	self, err := store.LocalPlayer()
	if err != nil {
		log.Fatal().Err(err).Msg("load local player failed")
	}

	pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("Card", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("room", pterm.FgDarkGray.ToStyle()),
	).Render()
	pterm.Info.Printfln("You are %s (%s)", self.Name, self.ID)

	spinner, _ := pterm.DefaultSpinner.Start("Connecting to the relay ...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	conn, err := transport.DialWS(ctx, cfg.RelayWSURL, transport.HTTPAuthorizer(cfg.AuthEndpoint, nil))
	cancel()
	if err != nil {
		spinner.Fail()
		log.Fatal().Err(err).Str("url", cfg.RelayWSURL).Msg("relay dial failed")
	}
	spinner.Success()
	defer conn.Close()

	mgr := session.NewManager(conn, self,
		session.WithDealDelay(time.Duration(cfg.DealDelayMS)*time.Millisecond))

	for {
		printState(mgr)
		action, _ := pterm.DefaultInteractiveSelect.
			WithDefaultText("Select your next action").
			WithOptions(availableActions(mgr)).
			Show()
		pterm.Println()

		switch action {
		case actionCreate:
			roomID, err := mgr.CreateRoom()
			if err != nil {
				pterm.Error.Printfln("create failed: %v", err)
				continue
			}
			pterm.Success.Printfln("Room %s is open. Share the id with your opponent.", roomID)
			waitForDeal(mgr)
		case actionJoin:
			roomID, _ := pterm.DefaultInteractiveTextInput.
				WithDefaultText("Enter the six digit room id").
				Show()
			pterm.Println()
			if err := mgr.JoinRoom(roomID); err != nil {
				pterm.Error.Printfln("join failed: %v", err)
				continue
			}
			pterm.Success.Printfln("Joined room %s", mgr.RoomID())
			waitForDeal(mgr)
		case actionTable:
			// state refresh happens on the next loop iteration
		case actionPlay:
			playCard(mgr)
		case actionLeave:
			mgr.LeaveRoom()
			pterm.Info.Println("Left the room")
		case actionQuit:
			mgr.LeaveRoom()
			return
		}
	}
}

func availableActions(mgr *session.Manager) []string {
	if mgr.State() != session.StateActive {
		return []string{actionCreate, actionJoin, actionQuit}
	}
	actions := []string{actionTable}
	if len(mgr.Hand()) > 0 {
		actions = append(actions, actionPlay)
	}
	return append(actions, actionLeave, actionQuit)
}

// waitForDeal polls briefly so the hand shows up on the next render
// when the opponent is already in the room. The deal may also land
// much later; the loop re-reads state every iteration either way.
func waitForDeal(mgr *session.Manager) {
	spinner, _ := pterm.DefaultSpinner.Start("Waiting for the other player ...")
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if len(mgr.Hand()) > 0 {
			spinner.Success("Cards dealt")
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	spinner.Info("No opponent yet. The deal fires as soon as one arrives.")
}

func playCard(mgr *session.Manager) {
	hand := mgr.Hand()
	if len(hand) == 0 {
		pterm.Warning.Println("Your hand is empty")
		return
	}
	labels := make([]string, len(hand))
	for i, c := range hand {
		labels[i] = cardLabel(c)
	}
	choice, _ := pterm.DefaultInteractiveSelect.
		WithDefaultText("Pick a card to play").
		WithOptions(labels).
		Show()
	pterm.Println()
	for i, label := range labels {
		if label == choice {
			if err := mgr.PlayCard(hand[i]); err != nil {
				pterm.Error.Printfln("play failed: %v", err)
			}
			return
		}
	}
}

func printState(mgr *session.Manager) {
	if mgr.State() != session.StateActive {
		pterm.Info.Println("Not in a room")
		return
	}
	header := fmt.Sprintf("Room %s", mgr.RoomID())
	peers := mgr.Peers()
	if len(peers) == 0 {
		header += " (waiting for opponent)"
	}
	for _, p := range peers {
		header += fmt.Sprintf("  vs %s", p.Name)
	}
	pterm.DefaultSection.Println(header)

	if hand := mgr.Hand(); len(hand) > 0 {
		line := ""
		for _, c := range hand {
			line += cardLabel(c) + "  "
		}
		pterm.DefaultBox.WithTitle(pterm.LightCyan("|YOUR HAND|")).WithTitleTopCenter().Println(line)
	}
	if table := mgr.Table(); len(table) > 0 {
		line := ""
		for _, e := range table {
			line += fmt.Sprintf("%s played %s\n", playerName(mgr, e.PlayerID), cardLabel(e.Card))
		}
		pterm.DefaultBox.WithTitle(pterm.LightYellow("|TABLE|")).WithTitleTopCenter().Print(line)
	}
}

func playerName(mgr *session.Manager, id string) string {
	if id == mgr.Self().ID {
		return "you"
	}
	for _, p := range mgr.Peers() {
		if p.ID == id {
			return p.Name
		}
	}
	return id
}
