package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"ms-booking/internal/models"

	"github.com/skip2/go-qrcode"
)

// Generator renders boarding QR codes. The payload is the ticket encoded
// as JSON and encrypted with AES-CFB so a scanner at the gate can verify
// it offline with the shared secret.
type Generator struct {
	secret []byte
}

func NewGenerator(secret string) *Generator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Generator{secret: hashed[:]}
}

func (g *Generator) GenerateEncryptedQR(ticket models.Ticket) ([]byte, error) {
	encrypted, err := g.EncryptPayload(ticket)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

// EncryptPayload produces the encrypted string a QR code carries.
func (g *Generator) EncryptPayload(ticket models.Ticket) (string, error) {
	data, err := json.Marshal(ticket)
	if err != nil {
		return "", err
	}

	return encryptAES(data, g.secret)
}

// Decode reverses the QR payload back into a ticket. Used by the gate
// scanner endpoint to validate a boarding pass.
func (g *Generator) Decode(payload string) (*models.Ticket, error) {
	plain, err := decryptAES(payload, g.secret)
	if err != nil {
		return nil, err
	}

	ticket := new(models.Ticket)
	if err := json.Unmarshal(plain, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]

	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

func decryptAES(payload string, key []byte) ([]byte, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aes.BlockSize {
		return nil, errors.New("qr: payload too short")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	iv := ciphertext[:aes.BlockSize]
	plain := make([]byte, len(ciphertext)-aes.BlockSize)

	stream := cipher.NewCFBDecrypter(block, iv)
	stream.XORKeyStream(plain, ciphertext[aes.BlockSize:])

	return plain, nil
}
