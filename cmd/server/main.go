package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"golang.org/x/term"

	"github.com/dmitrijs2005/consentvault/internal/common"
	"github.com/dmitrijs2005/consentvault/internal/server"
	"github.com/dmitrijs2005/consentvault/internal/server/config"
)

// readMasterKey prompts for the vault master key when it is not
// configured and stdin is a terminal.
func readMasterKey() (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("master key not configured and stdin is not a terminal")
	}

	fmt.Print("Master key: ")
	key, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(key) == 0 {
		return "", fmt.Errorf("empty master key")
	}

	masterKey := string(key)
	common.WipeByteArray(key)
	return masterKey, nil
}

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	if cfg.MasterKey == "" {
		key, err := readMasterKey()
		if err != nil {
			log.Printf("%v", err)
			return
		}
		cfg.MasterKey = key
	}

	app, err := server.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
