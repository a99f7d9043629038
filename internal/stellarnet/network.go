package stellarnet

import "github.com/stellar/go/network"

const (
	testnetHorizonURL = "https://horizon-testnet.stellar.org"
	publicHorizonURL  = "https://horizon.stellar.org"
)

// Network describes which Stellar network all operations target. It is
// immutable once constructed; the passphrase participates in every
// transaction signature, so two Networks with different passphrases
// produce incompatible envelopes.
type Network struct {
	HorizonURL string
	Passphrase string
}

// Testnet returns the SDF test network.
func Testnet() Network {
	return Network{HorizonURL: testnetHorizonURL, Passphrase: network.TestNetworkPassphrase}
}

// Public returns the public Stellar network.
func Public() Network {
	return Network{HorizonURL: publicHorizonURL, Passphrase: network.PublicNetworkPassphrase}
}

// Custom builds a Network for a private or standalone deployment.
func Custom(horizonURL, passphrase string) Network {
	return Network{HorizonURL: horizonURL, Passphrase: passphrase}
}
