package deezer

import (
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.deezer.com"

// Client Deezer 公共 API 客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建新的API客户端
func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
	}
}

// SetBaseURL 设置API基础URL
func (c *Client) SetBaseURL(url string) {
	c.baseURL = strings.TrimRight(url, "/")
}

// SetTimeout 设置请求超时时间
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// SetHTTPClient 替换底层 http.Client
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}
