// Command arena-host runs an authoritative arena host on UDP, with optional
// kill stats in sqlite and a websocket spectator API.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/skip2/go-qrcode"
	"github.com/ttacon/chalk"

	"arenacore/auth"
	"arenacore/config"
	"arenacore/game"
	"arenacore/protocol"
	"arenacore/server"
	"arenacore/spectate"
	"arenacore/stats"
	"arenacore/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}

	flag.IntVar(&cfg.Port, "port", cfg.Port, "UDP port")
	flag.StringVar(&cfg.Bind, "bind", cfg.Bind, "UDP bind address")
	flag.IntVar(&cfg.MaxPlayers, "max-players", cfg.MaxPlayers, "Player cap including the host")
	flag.StringVar(&cfg.Codec, "codec", cfg.Codec, "Wire codec (msgpack or json)")
	flag.StringVar(&cfg.Password, "password", cfg.Password, "Join password")
	flag.StringVar(&cfg.DB, "db", cfg.DB, "Path to the stats database")
	flag.StringVar(&cfg.SpectateAddr, "spectate", cfg.SpectateAddr, "HTTP address for the spectator API")
	flag.BoolVar(&cfg.QR, "qr", cfg.QR, "Print a QR code of the join address")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fatal(err)
	}
	if err := run(cfg); err != nil {
		fatal(err)
	}
}

func run(cfg config.Config) error {
	codec, err := protocol.CodecByName(cfg.Codec)
	if err != nil {
		return err
	}
	armory := game.DefaultArmory()
	if cfg.Weapons != "" {
		if armory, err = game.LoadArmory(cfg.Weapons); err != nil {
			return err
		}
	}

	opts := server.Options{
		Transport:      transport.DefaultConfig(),
		TickHz:         cfg.TickHz,
		BroadcastHz:    cfg.BroadcastHz,
		Armory:         armory,
		RespawnDelay:   cfg.RespawnDelay,
		PeerTimeout:    cfg.PeerTimeout,
		MaxPlayers:     cfg.MaxPlayers,
		StrictOrdering: cfg.StrictOrdering,
	}
	opts.Transport.Codec = codec

	matchID := ""
	var store *stats.Store
	if cfg.DB != "" {
		if store, err = stats.OpenDB(cfg.DB); err != nil {
			return err
		}
		defer store.Close()
		if matchID, err = store.BeginMatch(); err != nil {
			return err
		}
		rec := stats.NewRecorder(store, matchID)
		defer func() {
			rec.Stop()
			if err := store.EndMatch(matchID); err != nil {
				log.Printf("stats: end match: %v", err)
			}
		}()
		opts.Stats = rec
	}

	tickets, err := auth.NewTickets([]byte(cfg.Secret), matchID)
	if err != nil {
		return err
	}
	opts.Tickets = tickets
	if cfg.Password != "" {
		if opts.Password, err = auth.NewPassword(cfg.Password, auth.DefaultCost); err != nil {
			return err
		}
	}

	var web *http.Server
	if cfg.SpectateAddr != "" {
		hub := spectate.NewHub()
		go hub.Run()
		defer hub.Stop()
		opts.Observers = append(opts.Observers, hub)

		var board spectate.Board
		if store != nil {
			board = store
		}
		web = &http.Server{Addr: cfg.SpectateAddr, Handler: spectate.Routes(hub, board, matchID)}
		go func() {
			log.Printf("spectate: listening on %s", cfg.SpectateAddr)
			if err := web.ListenAndServe(); err != http.ErrServerClosed {
				log.Printf("spectate: %v", err)
			}
		}()
	}

	srv, err := server.New(cfg.Addr(), opts)
	if err != nil {
		return err
	}
	banner(cfg, srv.Addr(), codec.Name())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = srv.Run(ctx)
	log.Println("Shutting down...")
	if web != nil {
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		web.Shutdown(shutdown)
	}
	return err
}

func banner(cfg config.Config, addr *net.UDPAddr, codec string) {
	join := net.JoinHostPort(transport.LocalIP(), strconv.Itoa(addr.Port))
	log.Print(chalk.Green)
	log.Printf("Arena host listening on %s (%s, %d Hz)", addr, codec, cfg.TickHz)
	log.Printf("Players join at %s", join)
	log.Print(chalk.Reset)

	if !cfg.QR {
		return
	}
	qr, err := qrcode.New(join, qrcode.Medium)
	if err != nil {
		log.Printf("qr: %v", err)
		return
	}
	os.Stdout.WriteString(qr.ToSmallString(false))
}

func fatal(err error) {
	log.Print(chalk.Red)
	log.Println(err, chalk.Reset)
	os.Exit(1)
}
