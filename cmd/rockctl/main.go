// rockctl is a small command line client for poking a running game server:
// it trades a wallet for a session token, connects over websocket and runs
// one action. Handy for smoke tests without a browser.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"example.com/rocklegends/internal/client"
	"example.com/rocklegends/internal/game"
	"example.com/rocklegends/internal/session"
)

const usage = `usage: rockctl [flags] <command> [args]

commands:
  status                      show the current player, band and tournament
  register <username>         create a character for the wallet
  perform <stage>             play a solo performance at the given stage
  band-create <name> [desc]   found a new band
  band-join <bandID> <role>   join an existing band (singer|drummer|guitarist|...)
  band-leave                  leave the current band
  battle <bandID>             challenge another band
  tournament-join             register the band for the open tournament
  leaderboard                 top players by earnings (plain HTTP, no websocket)

flags:
`

func main() {
	fs := flag.NewFlagSet("rockctl", flag.ExitOnError)
	serverURL := fs.String("server", envString("ROCK_SERVER", "http://localhost:8080"), "game server base URL")
	wallet := fs.String("wallet", envString("ROCK_WALLET", ""), "wallet address (0x...)")
	style := fs.String("style", "classic", "character style for register")
	role := fs.String("role", "guitarist", "primary instrument for register")
	verbose := fs.Bool("v", false, "debug logging")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(fs, *serverURL, *wallet, *style, *role, log); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(fs *flag.FlagSet, serverURL, wallet, style, role string, log *slog.Logger) error {
	cmd := fs.Arg(0)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if cmd == "leaderboard" {
		return printLeaderboard(ctx, serverURL)
	}

	if wallet == "" {
		return fmt.Errorf("wallet is required (use -wallet or ROCK_WALLET)")
	}

	token, err := fetchToken(ctx, serverURL, wallet)
	if err != nil {
		return err
	}

	wsURL := strings.Replace(serverURL, "http", "ws", 1) + "/ws?token=" + token
	sess := session.New(session.Config{
		BackendURL:     wsURL,
		ConnectTimeout: 5 * time.Second,
	}, log)
	c := client.New(sess, log)
	defer c.Close()

	if err := c.SetAccount(ctx, wallet); err != nil {
		return err
	}
	if c.Simulated() {
		fmt.Println("note: server unreachable, running against a local simulation")
	}

	switch cmd {
	case "status":
		return printStatus(c)

	case "register":
		if fs.NArg() < 2 {
			return fmt.Errorf("register needs a username")
		}
		p, err := c.RegisterPlayer(ctx, fs.Arg(1), game.Customization{
			Style:             game.CharacterStyle(style),
			PrimaryInstrument: game.Role(role),
		}, "")
		if err != nil {
			return err
		}
		fmt.Printf("registered %s (level %d, %d tokens)\n", p.Username, p.Level, p.RockTokens)
		return nil

	case "perform":
		if fs.NArg() < 2 {
			return fmt.Errorf("perform needs a stage number")
		}
		stage, err := strconv.Atoi(fs.Arg(1))
		if err != nil {
			return fmt.Errorf("bad stage number %q", fs.Arg(1))
		}
		out, err := c.PerformSolo(ctx, stage)
		if err != nil {
			return err
		}
		fmt.Printf("performed at quality %d: +%d earnings, +%d xp, +%d tokens\n",
			out.PerformanceQuality, out.Earnings, out.ExperienceGained, out.TokensEarned)
		if out.LeveledUp {
			fmt.Printf("leveled up to %d\n", out.NewLevel)
		}
		if out.StageAdvanced {
			fmt.Println("advanced to the next stage")
		}
		return nil

	case "band-create":
		if fs.NArg() < 2 {
			return fmt.Errorf("band-create needs a name")
		}
		desc := ""
		if fs.NArg() > 2 {
			desc = fs.Arg(2)
		}
		b, err := c.CreateBand(ctx, fs.Arg(1), desc)
		if err != nil {
			return err
		}
		fmt.Printf("band %q created (id %s)\n", b.Name, b.ID)
		return nil

	case "band-join":
		if fs.NArg() < 3 {
			return fmt.Errorf("band-join needs a band id and a role")
		}
		if err := c.JoinBand(ctx, fs.Arg(1), game.Role(fs.Arg(2))); err != nil {
			return err
		}
		fmt.Println("joined")
		return nil

	case "band-leave":
		if err := c.LeaveBand(ctx); err != nil {
			return err
		}
		fmt.Println("left the band")
		return nil

	case "battle":
		if fs.NArg() < 2 {
			return fmt.Errorf("battle needs an opponent band id")
		}
		b, err := c.StartBattle(ctx, fs.Arg(1))
		if err != nil {
			return err
		}
		fmt.Printf("battle %s: %s %d vs %d %s\n", b.Status, b.BandAID, b.BandAScore, b.BandBScore, b.BandBID)
		if b.WinnerBandID != "" {
			fmt.Printf("winner: band %s (prize %d)\n", b.WinnerBandID, b.PrizeDistributed)
		}
		return nil

	case "tournament-join":
		if err := c.RegisterForTournament(ctx); err != nil {
			return err
		}
		t := c.ActiveTournament()
		if t != nil {
			fmt.Printf("registered for %q (%d/%d bands, prize pool %d)\n",
				t.Name, t.CurrentParticipants, t.MaxParticipants, t.TotalPrizePool)
		} else {
			fmt.Println("registered")
		}
		return nil

	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printStatus(c *client.Client) error {
	p := c.Player()
	if p == nil {
		fmt.Println("no character for this wallet yet, run: rockctl register <username>")
		return nil
	}
	fmt.Printf("%s  level %d  xp %d  tokens %d  stage %d  (%s, %s)\n",
		p.Username, p.Level, p.Experience, p.RockTokens, p.SoloCareerStage,
		p.CharacterStyle, p.PrimaryInstrument)

	if b := c.CurrentBand(); b != nil {
		fmt.Printf("band: %q  power %d  record %d-%d  slots s%d/%d d%d/%d g%d/%d\n",
			b.Name, b.TotalPower, b.TotalWins, b.TotalLosses,
			b.CurrentSingers, b.MaxSingers,
			b.CurrentDrummers, b.MaxDrummers,
			b.CurrentGuitarists, b.MaxGuitarists)
	} else {
		fmt.Println("band: none")
	}

	if t := c.ActiveTournament(); t != nil {
		fmt.Printf("tournament: %q %s (%d/%d bands, entry %d)\n",
			t.Name, t.Status, t.CurrentParticipants, t.MaxParticipants, t.EntryFee)
	}

	for _, b := range c.RecentBattles() {
		fmt.Printf("battle %s: %s %d vs %d %s -> %s\n",
			b.ID, b.BandAID, b.BandAScore, b.BandBScore, b.BandBID, b.Status)
	}
	return nil
}

func fetchToken(ctx context.Context, serverURL, wallet string) (string, error) {
	body, _ := json.Marshal(map[string]string{"wallet": wallet})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverURL+"/api/session", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("session request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("session request: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}

	var out struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

func printLeaderboard(ctx context.Context, serverURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverURL+"/api/leaderboard", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var out struct {
		Players []struct {
			Rank          int    `json:"rank"`
			Username      string `json:"username"`
			Level         int    `json:"level"`
			TotalEarnings int64  `json:"totalEarnings"`
		} `json:"players"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	for _, p := range out.Players {
		fmt.Printf("%2d. %-20s level %-3d earnings %d\n", p.Rank, p.Username, p.Level, p.TotalEarnings)
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
