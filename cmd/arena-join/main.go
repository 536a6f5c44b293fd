// Command arena-join is a headless player. It joins a host, circles its
// spawn point and optionally fires at the nearest living player.
package main

import (
	"context"
	"flag"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ttacon/chalk"

	"arenacore/client"
	"arenacore/game"
	"arenacore/geom"
	"arenacore/protocol"
	"arenacore/transport"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:5555", "Host address")
	password := flag.String("password", "", "Join password")
	ticket := flag.String("ticket", "", "Reconnect ticket from an earlier session")
	codecName := flag.String("codec", "msgpack", "Wire codec (msgpack or json)")
	weapon := flag.String("fire", "", "Weapon to fire at the nearest player, empty to stay passive")
	hz := flag.Int("hz", 60, "Local tick rate")
	flag.Parse()

	codec, err := protocol.CodecByName(*codecName)
	if err != nil {
		log.Fatalf("%v", err)
	}
	armory := game.DefaultArmory()
	if *weapon != "" {
		if _, err := armory.Lookup(*weapon); err != nil {
			log.Fatalf("%s: %v", *weapon, err)
		}
	}
	opts := client.Options{
		Transport: transport.DefaultConfig(),
		Armory:    armory,
		Password:  *password,
		Ticket:    *ticket,
	}
	opts.Transport.Codec = codec

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := client.Dial(ctx, *addr, opts)
	if err != nil {
		log.Print(chalk.Red)
		log.Println("join failed:", err, chalk.Reset)
		os.Exit(1)
	}
	defer c.Close()
	log.Print(chalk.Green)
	log.Printf("Joined %s as player %d", *addr, c.ID())
	log.Printf("Reconnect ticket: %s", c.Ticket())
	log.Print(chalk.Reset)

	play(ctx, c, *hz, *weapon)
	log.Println("Leaving...")
}

func play(ctx context.Context, c *client.Client, hz int, weapon string) {
	if hz <= 0 {
		hz = 60
	}
	dt := 1.0 / float64(hz)
	ticker := time.NewTicker(time.Duration(float64(time.Second) * dt))
	defer ticker.Stop()

	home := c.Local().Position
	alive := c.Local().IsAlive
	var angle float64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if c.Local().IsAlive && !alive {
			home = c.Local().Position
		}
		alive = c.Local().IsAlive

		if alive {
			angle += dt
			pos := home.Add(geom.V(math.Cos(angle)*3, 0, math.Sin(angle)*3))
			vel := geom.V(-math.Sin(angle)*3, 0, math.Cos(angle)*3)
			c.SetLocal(pos, geom.V(0, angle*180/math.Pi, 0), vel)
			if weapon != "" {
				if target, ok := nearest(c); ok {
					// cooldown errors are expected every tick between shots
					c.Fire(weapon, pos, target.Sub(pos))
				}
			}
		}

		for _, m := range c.Tick(dt).Messages {
			report(c.ID(), m)
		}
	}
}

func nearest(c *client.Client) (geom.Vec3, bool) {
	me := c.Local().Position
	best, found := math.Inf(1), false
	var at geom.Vec3
	for _, r := range c.Remotes() {
		if !r.State.IsAlive {
			continue
		}
		if d := geom.Dist(me, r.Position); d < best {
			best, at, found = d, r.Position, true
		}
	}
	return at, found
}

func report(self int, m protocol.Message) {
	switch m := m.(type) {
	case protocol.Join:
		log.Printf("player %d joined", m.PlayerID)
	case protocol.Leave:
		log.Printf("player %d left", m.PlayerID)
	case protocol.Hit:
		if m.Killed {
			log.Print(chalk.Yellow)
			log.Printf("player %d killed player %d with %s", m.AttackerID, m.TargetID, m.Weapon)
			log.Print(chalk.Reset)
		} else if m.TargetID == self {
			log.Printf("hit by player %d for %d", m.AttackerID, m.Damage)
		}
	case protocol.Respawn:
		log.Printf("player %d respawned at %v", m.PlayerID, m.Position)
	}
}
