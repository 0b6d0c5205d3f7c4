package seed

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"io"
	"strings"
)

const (
	DefaultLength = 32
	MinLength     = 12
	charset       = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// PasswordSource produces the password to store for a user
type PasswordSource interface {
	Password(username string) (string, error)
}

// PromptSource asks for each password on a line of In
type PromptSource struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

func (p *PromptSource) Password(username string) (string, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	if p.Out != nil {
		fmt.Fprintf(p.Out, "Enter password for %s: ", username)
	}

	line, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read password for %s: %w", username, err)
	}
	return strings.TrimSpace(line), nil
}

// GeneratedSource creates random alphanumeric passwords
type GeneratedSource struct {
	Length int
	Random io.Reader // crypto/rand.Reader when nil
}

func (g GeneratedSource) Password(string) (string, error) {
	length := g.Length
	if length <= 0 {
		length = DefaultLength
	}
	if length < MinLength {
		return "", fmt.Errorf("password length %d is below the minimum of %d", length, MinLength)
	}

	random := g.Random
	if random == nil {
		random = rand.Reader
	}

	// Bytes at or above limit are rejected so every character is equally likely.
	limit := 256 - 256%len(charset)
	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := io.ReadFull(random, buf); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, charset[int(b)%len(charset)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
