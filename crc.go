package tilefits

import (
	"crypto/sha1"
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

// checksumFile returns the size, SHA-1 and IEEE CRC-32 of file, both hashes
// as upper case hex.
func checksumFile(file string) (int64, string, string, error) {
	f, err := os.Open(file)
	if err != nil {
		return 0, "", "", err
	}
	defer f.Close()

	s := sha1.New()
	c := crc32.NewIEEE()

	n, err := io.Copy(io.MultiWriter(s, c), f)
	if err != nil {
		return 0, "", "", err
	}

	return n, fmt.Sprintf("%X", s.Sum(nil)), fmt.Sprintf("%.*X", crc32.Size<<1, c.Sum(nil)), nil
}
