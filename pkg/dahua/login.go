package dahua

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"
)

const loginMethod = "global.login"

type loginParams struct {
	UserName      string `json:"userName"`
	Password      string `json:"password"`
	ClientType    string `json:"clientType"`
	AuthorityType string `json:"authorityType,omitempty"`
	PasswordType  string `json:"passwordType,omitempty"`
}

// Login runs the two-step challenge/response handshake.
//
// The first step asks for a challenge and stores the session token it
// returns, which the second step must carry. The second step sends
// HashPassword(username, password, realm, random). The token from the first
// step stays in use afterwards. On failure the session is left
// unauthenticated.
func (s *Session) Login(ctx context.Context) error {
	s.authenticated = false
	url := s.URL(LoginPath)

	// The challenge step normally answers result false with an error
	// object; only session, realm and random matter here.
	resp, err := s.Invoke(ctx, Call{
		Method: loginMethod,
		Params: loginParams{
			UserName:   s.username,
			Password:   "",
			ClientType: ClientType,
		},
		URL: url,
	})
	if err != nil {
		return err
	}
	if resp.Session.IsZero() {
		return loginFailure("challenge carried no session", resp)
	}
	realm, random := resp.Param("realm"), resp.Param("random")
	if !realm.Exists() || !random.Exists() {
		return loginFailure("challenge carried no realm or random", resp)
	}
	s.token = resp.Session

	resp, err = s.Invoke(ctx, Call{
		Method: loginMethod,
		Params: loginParams{
			UserName:      s.username,
			Password:      HashPassword(s.username, s.password, realm.String(), random.String()),
			ClientType:    ClientType,
			AuthorityType: "Default",
			PasswordType:  "Default",
		},
		URL: url,
	})
	if err != nil {
		return err
	}
	if resp.IsFalse() {
		return loginFailure("credentials rejected", resp)
	}

	s.authenticated = true
	s.logger.Info().Str("user", s.username).Msg("logged in")
	return nil
}

// HashRealm returns UPPER(MD5_HEX(username:realm:password)).
func HashRealm(username, password, realm string) string {
	return md5Upper(username + ":" + realm + ":" + password)
}

// HashPassword returns the value sent as password in the second login step:
// UPPER(MD5_HEX(username:random:HashRealm(...))).
func HashPassword(username, password, realm, random string) string {
	return md5Upper(username + ":" + random + ":" + HashRealm(username, password, realm))
}

func md5Upper(s string) string {
	sum := md5.Sum([]byte(s))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
