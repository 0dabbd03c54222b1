// gensecret prints a random value to use as SECRET_KEY
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

// Sealer and state signer derive their keys from it, 32 bytes covers both
const SecretKeyBytesLen = 32

func main() {
	b := make([]byte, SecretKeyBytesLen)

	_, err := rand.Read(b)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("SECRET_KEY=%s\n", hex.EncodeToString(b))
}
