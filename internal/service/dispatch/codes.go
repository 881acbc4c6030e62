package dispatch

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/hubride/ride-pool-system/internal/domain/models"
)

const codeSpace = 1000000

// newCode draws a 6-digit verification code from crypto/rand, zero-padded.
func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return "", fmt.Errorf("could not draw verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// assignCodes stamps the master code and one code per manifest seat.
// All codes on a node are distinct so a match identifies the presenter.
func assignCodes(n *models.RideNode) error {
	used := make(map[string]bool, len(n.Passengers)+1)

	draw := func() (string, error) {
		for {
			c, err := newCode()
			if err != nil {
				return "", err
			}
			if !used[c] {
				used[c] = true
				return c, nil
			}
		}
	}

	master, err := draw()
	if err != nil {
		return err
	}
	n.MasterCode = &master

	for i := range n.Passengers {
		c, err := draw()
		if err != nil {
			return err
		}
		n.Passengers[i].Code = &c
	}
	return nil
}

// clearCodes drops all codes, used when a dispatched trip rolls back.
func clearCodes(n *models.RideNode) {
	n.MasterCode = nil
	for i := range n.Passengers {
		n.Passengers[i].Code = nil
	}
}
