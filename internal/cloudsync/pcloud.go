package cloudsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"
)

// pCloud API hosts, tried in order when no host is configured.
const (
	HostUS = "https://api.pcloud.com"
	HostEU = "https://eapi.pcloud.com"
)

// PCloudConfig holds the account and folder used for sync.
type PCloudConfig struct {
	Username string
	Password string
	// Folder is a slash separated path below the account root.
	Folder string
	// APIHost pins the API endpoint; empty tries HostUS then HostEU.
	APIHost    string
	HTTPClient *http.Client
}

// PCloud implements Provider against the pCloud HTTP JSON API.
type PCloud struct {
	cfg    PCloudConfig
	client *http.Client

	mu       sync.Mutex
	host     string
	token    string
	folderID int64
	resolved bool
}

// NewPCloud creates a pCloud provider. Login happens lazily on first use.
func NewPCloud(cfg PCloudConfig) *PCloud {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &PCloud{cfg: cfg, client: client}
}

// Name identifies the provider in the remote file table.
func (p *PCloud) Name() string { return "pcloud" }

type apiStatus struct {
	Result int    `json:"result"`
	Error  string `json:"error"`
}

func (s apiStatus) err(method string) error {
	if s.Result == 0 {
		return nil
	}
	return fmt.Errorf("cloudsync: pcloud %s: %d %s", method, s.Result, s.Error)
}

type pcloudMeta struct {
	Name     string       `json:"name"`
	IsFolder bool         `json:"isfolder"`
	FolderID int64        `json:"folderid"`
	FileID   int64        `json:"fileid"`
	Hash     uint64       `json:"hash"`
	Contents []pcloudMeta `json:"contents"`
}

func (m pcloudMeta) remote() RemoteFile {
	return RemoteFile{
		ID:   strconv.FormatInt(m.FileID, 10),
		Name: m.Name,
		Hash: strconv.FormatUint(m.Hash, 10),
	}
}

// login obtains an auth token, trying each candidate host in turn.
func (p *PCloud) login(ctx context.Context) error {
	if p.token != "" {
		return nil
	}
	hosts := []string{HostUS, HostEU}
	if p.cfg.APIHost != "" {
		hosts = []string{strings.TrimRight(p.cfg.APIHost, "/")}
	}

	var lastErr error
	for _, host := range hosts {
		q := url.Values{}
		q.Set("getauth", "1")
		q.Set("logout", "1")
		q.Set("username", p.cfg.Username)
		q.Set("password", p.cfg.Password)

		var resp struct {
			apiStatus
			Auth string `json:"auth"`
		}
		if err := p.get(ctx, host+"/userinfo?"+q.Encode(), &resp); err != nil {
			lastErr = err
			continue
		}
		if err := resp.err("userinfo"); err != nil {
			lastErr = err
			continue
		}
		p.host, p.token = host, resp.Auth
		return nil
	}
	return fmt.Errorf("cloudsync: pcloud login: %w", lastErr)
}

func (p *PCloud) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	return p.do(req, out)
}

func (p *PCloud) do(req *http.Request, out any) error {
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cloudsync: %s: status %d", req.URL.Path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// call invokes an API method with the auth token attached.
func (p *PCloud) call(ctx context.Context, method string, q url.Values, out any) error {
	q.Set("auth", p.token)
	return p.get(ctx, p.host+"/"+method+"?"+q.Encode(), out)
}

func (p *PCloud) listFolder(ctx context.Context, id int64) (pcloudMeta, error) {
	var resp struct {
		apiStatus
		Metadata pcloudMeta `json:"metadata"`
	}
	q := url.Values{}
	q.Set("folderid", strconv.FormatInt(id, 10))
	if err := p.call(ctx, "listfolder", q, &resp); err != nil {
		return pcloudMeta{}, err
	}
	if err := resp.err("listfolder"); err != nil {
		return pcloudMeta{}, err
	}
	return resp.Metadata, nil
}

// ready logs in and resolves the sync folder one path segment at a time.
func (p *PCloud) ready(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.login(ctx); err != nil {
		return err
	}
	if p.resolved {
		return nil
	}
	var id int64
	for _, seg := range strings.Split(strings.Trim(p.cfg.Folder, "/"), "/") {
		if seg == "" {
			continue
		}
		meta, err := p.listFolder(ctx, id)
		if err != nil {
			return err
		}
		found := false
		for _, c := range meta.Contents {
			if c.IsFolder && c.Name == seg {
				id, found = c.FolderID, true
				break
			}
		}
		if !found {
			return fmt.Errorf("cloudsync: pcloud folder %q not found", p.cfg.Folder)
		}
	}
	p.folderID, p.resolved = id, true
	return nil
}

// List returns the song files in the sync folder.
func (p *PCloud) List(ctx context.Context) ([]RemoteFile, error) {
	if err := p.ready(ctx); err != nil {
		return nil, err
	}
	meta, err := p.listFolder(ctx, p.folderID)
	if err != nil {
		return nil, err
	}
	var out []RemoteFile
	for _, c := range meta.Contents {
		if c.IsFolder || !strings.EqualFold(path.Ext(c.Name), ".txt") {
			continue
		}
		out = append(out, c.remote())
	}
	return out, nil
}

// Fetch downloads a file through a temporary download link.
func (p *PCloud) Fetch(ctx context.Context, f RemoteFile) ([]byte, error) {
	if err := p.ready(ctx); err != nil {
		return nil, err
	}
	var link struct {
		apiStatus
		Hosts []string `json:"hosts"`
		Path  string   `json:"path"`
	}
	q := url.Values{}
	q.Set("fileid", f.ID)
	if err := p.call(ctx, "getfilelink", q, &link); err != nil {
		return nil, err
	}
	if err := link.err("getfilelink"); err != nil {
		return nil, err
	}
	if len(link.Hosts) == 0 {
		return nil, fmt.Errorf("cloudsync: pcloud getfilelink: no hosts for %s", f.Name)
	}

	scheme := "https"
	if u, err := url.Parse(p.host); err == nil && u.Scheme != "" {
		scheme = u.Scheme
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, scheme+"://"+link.Hosts[0]+link.Path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloudsync: download %s: %w", f.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cloudsync: download %s: status %d", f.Name, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Push uploads content as name. A previous copy is deleted first.
func (p *PCloud) Push(ctx context.Context, name string, content []byte, previous *RemoteFile) (RemoteFile, error) {
	if err := p.ready(ctx); err != nil {
		return RemoteFile{}, err
	}
	if previous != nil {
		var resp apiStatus
		q := url.Values{}
		q.Set("fileid", previous.ID)
		if err := p.call(ctx, "deletefile", q, &resp); err != nil {
			return RemoteFile{}, err
		}
		// 2009: file not found, already gone remotely
		if resp.Result != 0 && resp.Result != 2009 {
			return RemoteFile{}, resp.err("deletefile")
		}
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return RemoteFile{}, err
	}
	if _, err := part.Write(content); err != nil {
		return RemoteFile{}, err
	}
	if err := mw.Close(); err != nil {
		return RemoteFile{}, err
	}

	q := url.Values{}
	q.Set("auth", p.token)
	q.Set("folderid", strconv.FormatInt(p.folderID, 10))
	q.Set("filename", name)
	q.Set("nopartial", "1")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+"/uploadfile?"+q.Encode(), &body)
	if err != nil {
		return RemoteFile{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp struct {
		apiStatus
		Metadata []pcloudMeta `json:"metadata"`
	}
	if err := p.do(req, &resp); err != nil {
		return RemoteFile{}, err
	}
	if err := resp.err("uploadfile"); err != nil {
		return RemoteFile{}, err
	}
	if len(resp.Metadata) == 0 {
		return RemoteFile{}, fmt.Errorf("cloudsync: pcloud uploadfile: empty metadata")
	}
	return resp.Metadata[0].remote(), nil
}
