package token

type secretProvider interface {
	Get() []byte
}

// SecretString serves a signing secret held in memory. It satisfies
// secretProvider so the issuer can later be pointed at a rotating source
// without changing its API.
type SecretString struct {
	secret string
}

func NewSecretString(secret string) *SecretString {
	return &SecretString{
		secret: secret,
	}
}

func (s *SecretString) Get() []byte {
	return []byte(s.secret)
}
