// Package devicesim implements an in-process Dahua device speaking the RPC2
// protocol: the two-step login challenge, session checks, object factories
// and the handful of methods the client library drives. It backs the client
// tests and the CLI's simulate command.
package devicesim

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/tansive/dahuarpc/internal/common/httpx"
	"github.com/tansive/dahuarpc/internal/common/logtrace"
	"github.com/tansive/dahuarpc/internal/common/middleware"
	"github.com/tansive/dahuarpc/internal/common/uuid"
)

type methodHandler func(req *rpcRequest, obj *object) rpcResponse

// Device is a simulated device. All state is guarded by mu; the HTTP server
// may call it concurrently.
type Device struct {
	Router *chi.Mux

	opts    Options
	methods map[string]methodHandler

	mu         sync.Mutex
	sessions   map[string]*loginState
	objects    map[int64]*object
	nextObject int64
	splitMode  string
	splitGroup int
	config     map[string]json.RawMessage
	ntp        []json.RawMessage
	reboots    int
	failures   map[string]bool
	calls      []Call
}

// New creates a device and mounts its handlers.
func New(opts Options) *Device {
	if opts.Realm == "" {
		opts.Realm = DefaultRealm
	}
	if opts.Random == nil {
		opts.Random = func() string { return uuid.Digits(10) }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	d := &Device{
		Router:     chi.NewRouter(),
		opts:       opts,
		sessions:   make(map[string]*loginState),
		objects:    make(map[int64]*object),
		nextObject: 3000,
		splitMode:  "Split1",
		config:     make(map[string]json.RawMessage),
		failures:   make(map[string]bool),
	}
	d.methods = map[string]methodHandler{
		"global.getCurrentTime":         d.getCurrentTime,
		"global.keepAlive":              d.keepAlive,
		"configManager.setConfig":       d.setConfig,
		"magicBox.getProductDefinition": d.getProductDefinition,
		"magicBox.factory.instance":     d.instance("magicBox"),
		"magicBox.reboot":               d.reboot,
		"netApp.factory.instance":       d.instance("netApp"),
		"netApp.adjustTimeWithNTP":      d.adjustTimeWithNTP,
		"split.factory.instance":        d.instance("split"),
		"split.getMode":                 d.getSplitMode,
		"split.setMode":                 d.setSplitMode,
		"RecordFinder.factory.create":   d.createFinder,
		"RecordFinder.startFind":        d.startFind,
		"RecordFinder.doFind":           d.doFind,
	}
	d.MountHandlers()
	return d
}

// MountHandlers sets up the two RPC endpoints and the middleware chain.
func (d *Device) MountHandlers() {
	d.Router.Use(middleware.RequestLogger)
	d.Router.Use(middleware.Recoverer)
	d.Router.Use(middleware.Deadline(d.opts.HandlerTimeout))
	d.Router.Post("/RPC2_Login", d.handleLogin)
	d.Router.Post("/RPC2", d.handleRPC)
	if logtrace.IsTraceEnabled() {
		walkFunc := func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
			fmt.Printf("%s %s\n", method, route)
			return nil
		}
		if err := chi.Walk(d.Router, walkFunc); err != nil {
			log.Error().Err(err).Msg("error walking router")
		}
	}
}

// FailMethod makes every later call of method answer result false.
func (d *Device) FailMethod(method string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[method] = true
}

// Calls returns every request received so far.
func (d *Device) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

// Reboots returns how many reboot calls succeeded.
func (d *Device) Reboots() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reboots
}

// Config returns the last params stored by setConfig under name.
func (d *Device) Config(name string) (json.RawMessage, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.config[name]
	return v, ok
}

// NTPRequests returns the params of every accepted NTP sync.
func (d *Device) NTPRequests() []json.RawMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]json.RawMessage(nil), d.ntp...)
}

// Split returns the current display split as the device stores it.
func (d *Device) Split() (string, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.splitMode, d.splitGroup
}

// SetSplit overrides the stored display split.
func (d *Device) SetSplit(mode string, group int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.splitMode, d.splitGroup = mode, group
}

func (d *Device) handleLogin(w http.ResponseWriter, r *http.Request) {
	d.serve(w, r, d.login)
}

func (d *Device) handleRPC(w http.ResponseWriter, r *http.Request) {
	d.serve(w, r, d.dispatch)
}

// serve decodes one request, runs it under the device lock and answers after
// the configured delay, or with a busy error if the request deadline passes
// first.
func (d *Device) serve(w http.ResponseWriter, r *http.Request, handle func(*rpcRequest) rpcResponse) {
	var req rpcRequest
	if err := httpx.DecodeRequest(r, &req); err != nil {
		err.Send(w)
		return
	}

	d.mu.Lock()
	d.record(r.URL.Path, &req)
	rsp := handle(&req)
	d.mu.Unlock()
	rsp.ID = req.ID

	if d.opts.Delay > 0 {
		select {
		case <-time.After(d.opts.Delay):
		case <-r.Context().Done():
			log.Ctx(r.Context()).Warn().Str("method", req.Method).Msg("response deadline exceeded")
			httpx.ErrBusy().Send(w)
			return
		}
	}

	log.Ctx(r.Context()).Debug().Str("method", req.Method).Interface("result", rsp.Result).Msg("rpc call")
	httpx.SendJSON(r.Context(), w, http.StatusOK, rsp)
}

func (d *Device) record(path string, req *rpcRequest) {
	objID, _ := rawInt(req.Object)
	d.calls = append(d.calls, Call{
		Path:    path,
		Method:  req.Method,
		ID:      req.ID,
		Session: rawString(req.Session),
		Object:  objID,
		Params:  req.Params,
	})
}

type loginParams struct {
	UserName      string `json:"userName"`
	Password      string `json:"password"`
	ClientType    string `json:"clientType"`
	AuthorityType string `json:"authorityType"`
	PasswordType  string `json:"passwordType"`
}

func (d *Device) login(req *rpcRequest) rpcResponse {
	if req.Method != "global.login" {
		return failure(ErrCodeMethodNotFound, "Method not found!")
	}
	var p loginParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return failure(ErrCodeInvalidParams, "Invalid params!")
	}

	if p.Password == "" {
		token := uuid.Token()
		random := d.opts.Random()
		d.sessions[token] = &loginState{user: p.UserName, random: random}
		rsp := failure(ErrCodeLoginChallenge, "Component error: login challenge!")
		rsp.Session = token
		rsp.Params = map[string]any{
			"realm":      d.opts.Realm,
			"random":     random,
			"encryption": "Default",
		}
		return rsp
	}

	token := rawString(req.Session)
	st, ok := d.sessions[token]
	if !ok {
		return failure(ErrCodeInvalidSession, "Invalid session in request data!")
	}
	if d.failures[req.Method] || p.UserName != d.opts.Username || st.user != p.UserName ||
		p.Password != expectedHash(d.opts.Username, d.opts.Password, d.opts.Realm, st.random) {
		delete(d.sessions, token)
		return failure(ErrCodeBadCredentials, "User or password not valid!")
	}
	st.authenticated = true
	rsp := success(nil)
	rsp.Session = token
	return rsp
}

func (d *Device) dispatch(req *rpcRequest) rpcResponse {
	st, ok := d.sessions[rawString(req.Session)]
	if !ok || !st.authenticated {
		return failure(ErrCodeInvalidSession, "Invalid session in request data!")
	}
	handler, ok := d.methods[req.Method]
	if !ok {
		return failure(ErrCodeMethodNotFound, "Method not found!")
	}
	if d.failures[req.Method] {
		return failure(ErrCodeInvalidParams, "Forced failure!")
	}

	var obj *object
	if ns, scoped := objectNamespace(req.Method); scoped {
		id, _ := rawInt(req.Object)
		obj = d.objects[id]
		if obj == nil || obj.namespace != ns {
			return failure(ErrCodeInvalidObject, "Invalid object!")
		}
	}
	return handler(req, obj)
}

// objectNamespace reports whether method operates on an object instance and
// which factory namespace that object must come from.
func objectNamespace(method string) (string, bool) {
	if strings.Contains(method, ".factory.") {
		return "", false
	}
	switch {
	case method == "magicBox.reboot":
		return "magicBox", true
	case strings.HasPrefix(method, "netApp."):
		return "netApp", true
	case strings.HasPrefix(method, "split."):
		return "split", true
	case strings.HasPrefix(method, "RecordFinder."):
		return "RecordFinder", true
	}
	return "", false
}

func (d *Device) newObject(obj *object) int64 {
	d.nextObject++
	d.objects[d.nextObject] = obj
	return d.nextObject
}

func (d *Device) instance(namespace string) methodHandler {
	return func(req *rpcRequest, _ *object) rpcResponse {
		return rpcResponse{Result: d.newObject(&object{namespace: namespace})}
	}
}

func (d *Device) getCurrentTime(_ *rpcRequest, _ *object) rpcResponse {
	return success(map[string]any{"time": d.opts.Now().Format(TimeLayout)})
}

func (d *Device) keepAlive(req *rpcRequest, _ *object) rpcResponse {
	var p struct {
		Timeout int `json:"timeout"`
	}
	if err := json.Unmarshal(req.Params, &p); err != nil || p.Timeout <= 0 {
		return failure(ErrCodeInvalidParams, "Invalid params!")
	}
	return success(map[string]any{"timeout": p.Timeout})
}

func (d *Device) setConfig(req *rpcRequest, _ *object) rpcResponse {
	var p struct {
		Name  string          `json:"name"`
		Table json.RawMessage `json:"table"`
	}
	if err := json.Unmarshal(req.Params, &p); err != nil || p.Name == "" {
		return failure(ErrCodeInvalidParams, "Invalid params!")
	}
	d.config[p.Name] = req.Params
	return success(nil)
}

func (d *Device) getProductDefinition(req *rpcRequest, _ *object) rpcResponse {
	var p struct {
		Name string `json:"name"`
	}
	_ = json.Unmarshal(req.Params, &p)
	if p.Name == "" {
		return failure(ErrCodeInvalidParams, "Invalid params!")
	}
	return success(map[string]any{
		"definition": map[string]any{
			"Name":    p.Name,
			"Vendor":  "Simulated",
			"Channel": 1,
		},
	})
}

func (d *Device) reboot(_ *rpcRequest, _ *object) rpcResponse {
	d.reboots++
	return success(nil)
}

func (d *Device) adjustTimeWithNTP(req *rpcRequest, _ *object) rpcResponse {
	var p struct {
		Address string `json:"Address"`
	}
	if err := json.Unmarshal(req.Params, &p); err != nil || p.Address == "" {
		return failure(ErrCodeInvalidParams, "Invalid params!")
	}
	d.ntp = append(d.ntp, req.Params)
	return success(nil)
}

func (d *Device) getSplitMode(_ *rpcRequest, _ *object) rpcResponse {
	return success(map[string]any{
		"displayType": "General",
		"workMode":    "Local",
		"mode":        d.splitMode,
		"group":       d.splitGroup,
	})
}

func (d *Device) setSplitMode(req *rpcRequest, _ *object) rpcResponse {
	var p struct {
		Mode  string `json:"mode"`
		Group *int   `json:"group"`
	}
	if err := json.Unmarshal(req.Params, &p); err != nil || p.Group == nil || *p.Group < 0 {
		return failure(ErrCodeInvalidParams, "Invalid params!")
	}
	n, err := strconv.Atoi(strings.TrimPrefix(p.Mode, "Split"))
	if err != nil || !strings.HasPrefix(p.Mode, "Split") || n <= 0 {
		return failure(ErrCodeInvalidParams, "Invalid params!")
	}
	d.splitMode, d.splitGroup = p.Mode, *p.Group
	return success(nil)
}

func expectedHash(user, password, realm, random string) string {
	h1 := md5Upper(user + ":" + realm + ":" + password)
	return md5Upper(user + ":" + random + ":" + h1)
}

func md5Upper(s string) string {
	sum := md5.Sum([]byte(s))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func rawInt(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	return n, true
}
