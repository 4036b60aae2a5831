package main

import (
	// Services need to be imported here to be instantiated.
	_ "github.com/ceyhunalp/tyche/beacon"
	_ "github.com/ceyhunalp/tyche/raffle"
	"go.dedis.ch/onet/v3/simul"
)

func main() {
	simul.Start()
}
