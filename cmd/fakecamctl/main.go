// fakecamctl - controller for a running fakecam daemon
// Pushes live configuration over the control API and watches the
// status stream.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fakecam/go-fakecam/internal/config"
	"github.com/fakecam/go-fakecam/internal/httpc"
	"github.com/fakecam/go-fakecam/pkg/protocol"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: fakecamctl <command> [flags]

Commands:
  state   Print the daemon's current state
  set     Replace the live configuration
  watch   Follow the status stream
  ping    Measure control-plane round trip

Common flags:
  -addr   Control address (default %s, or FAKECAM_CONTROL_ADDR)
`, config.DefaultControlAddr)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	var err error
	switch os.Args[1] {
	case "state":
		err = cmdState(os.Args[2:])
	case "set":
		err = cmdSet(os.Args[2:])
	case "watch":
		err = cmdWatch(os.Args[2:])
	case "ping":
		err = cmdPing(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "fakecamctl: %v\n", err)
		os.Exit(1)
	}
}

func addrFlag(fs *flag.FlagSet) *string {
	def := os.Getenv("FAKECAM_CONTROL_ADDR")
	if def == "" {
		def = config.DefaultControlAddr
	}
	return fs.String("addr", def, "Control address of the daemon")
}

func fetchState(base string) (protocol.StateData, error) {
	var state protocol.StateData
	resp, err := httpc.Client.Get(base + "/api/state")
	if err != nil {
		return state, fmt.Errorf("fetch state: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return state, fmt.Errorf("fetch state: daemon answered %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return state, fmt.Errorf("decode state: %w", err)
	}
	return state, nil
}

func printState(state protocol.StateData) {
	background := state.Background
	if background == "" {
		background = "(privacy blur)"
	}
	fmt.Printf("resolution  %dx%d\n", state.Width, state.Height)
	fmt.Printf("frames      %d (%.1f fps)\n", state.Frames, state.FPS)
	fmt.Printf("background  %s\n", background)
	fmt.Printf("hologram    %v\n", state.Hologram)
	fmt.Printf("mirror      %v\n", state.Mirror)
	fmt.Printf("viewers     %d\n", state.Viewers)
}

func cmdState(args []string) error {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	addr := addrFlag(fs)
	asJSON := fs.Bool("json", false, "Print raw JSON")
	fs.Parse(args)

	state, err := fetchState(config.ControlURL(*addr))
	if err != nil {
		return err
	}
	if *asJSON {
		out, _ := json.MarshalIndent(state, "", "  ")
		fmt.Println(string(out))
		return nil
	}
	printState(state)
	return nil
}

// cmdSet posts a full config replacement. Unspecified toggles keep
// their current value: the daemon's state is fetched first and flags
// are layered on top.
func cmdSet(args []string) error {
	fs := flag.NewFlagSet("set", flag.ExitOnError)
	addr := addrFlag(fs)
	background := fs.String("background", "", "Virtual background image path")
	noBackground := fs.Bool("no-background", false, "Drop the virtual background (privacy blur)")
	hologram := fs.Bool("hologram", false, "Enable the hologram effect")
	mirror := fs.Bool("mirror", false, "Mirror the output horizontally")
	fs.Parse(args)

	if *background != "" && *noBackground {
		return fmt.Errorf("-background and -no-background are mutually exclusive")
	}

	base := config.ControlURL(*addr)
	state, err := fetchState(base)
	if err != nil {
		return err
	}

	update := protocol.ConfigUpdate{
		Hologram: state.Hologram,
		Mirror:   state.Mirror,
	}
	if state.Background != "" {
		bg := state.Background
		update.Background = &bg
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["hologram"] {
		update.Hologram = *hologram
	}
	if set["mirror"] {
		update.Mirror = *mirror
	}
	if *noBackground {
		update.Background = nil
	} else if *background != "" {
		update.Background = background
	}

	body, err := json.Marshal(update)
	if err != nil {
		return err
	}
	resp, err := httpc.Client.Post(base+"/api/config", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post config: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return fmt.Errorf("post config: daemon answered %s", resp.Status)
	}

	fmt.Println("config queued")
	return nil
}

func wsURL(addr, path string) (string, error) {
	base := config.ControlURL(addr)
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("bad control address %q: %w", addr, err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = path
	return u.String(), nil
}

// cmdWatch subscribes to the status stream and prints one line per
// snapshot until interrupted.
func cmdWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	addr := addrFlag(fs)
	fs.Parse(args)

	target, err := wsURL(*addr, "/ws/status")
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(target, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", target, err)
	}
	defer conn.Close()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("status stream: %w", err)
		}
		msg, err := protocol.ParseMessage(raw)
		if err != nil || msg.Type != protocol.TypeState {
			continue
		}
		var state protocol.StateData
		if err := msg.ParseData(&state); err != nil {
			continue
		}

		flags := []string{}
		if state.Hologram {
			flags = append(flags, "hologram")
		}
		if state.Mirror {
			flags = append(flags, "mirror")
		}
		fmt.Printf("%s  %dx%d  %6.1f fps  %8d frames  [%s]\n",
			time.Now().Format("15:04:05"),
			state.Width, state.Height, state.FPS, state.Frames,
			strings.Join(flags, ","))
	}
}

// cmdPing measures a protocol round trip over the control WebSocket.
func cmdPing(args []string) error {
	fs := flag.NewFlagSet("ping", flag.ExitOnError)
	addr := addrFlag(fs)
	fs.Parse(args)

	target, err := wsURL(*addr, "/ws/control")
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(target, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", target, err)
	}
	defer conn.Close()

	ping, err := protocol.NewPingMessage()
	if err != nil {
		return err
	}
	raw, err := ping.Bytes()
	if err != nil {
		return err
	}
	start := time.Now()
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		return fmt.Errorf("send ping: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("await pong: %w", err)
		}
		msg, err := protocol.ParseMessage(raw)
		if err != nil || msg.Type != protocol.TypePong {
			continue
		}
		var pong protocol.PongData
		if err := msg.ParseData(&pong); err != nil {
			return err
		}
		if pong.ID != ping.ID {
			continue
		}
		fmt.Printf("pong from %s: rtt=%s\n", *addr, time.Since(start).Round(time.Microsecond))
		return nil
	}
}
