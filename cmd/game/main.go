// Command game runs the Muscle Dreamer demo World: a fixed-timestep ECS
// loop with no rendering backend, printing periodic Stats() to the console.
// Interrupt with Ctrl+C.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"muscle-dreamer/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	game := core.NewGame()
	if err := game.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
