package gateway

import "net/http"

// FetchSDLForTest exports fetchSDL for black-box testing.
func FetchSDLForTest(host string, httpClient *http.Client, retry RetryOption) (string, error) {
	return fetchSDL(host, httpClient, retry)
}

// BuildEngineForTest exports buildEngine for black-box testing.
func BuildEngineForTest(sdls, hosts map[string]string, httpClient *http.Client) (*executionEngine, error) {
	return buildEngine(sdls, hosts, httpClient)
}

// CopyMapForTest exports copyMap for black-box testing.
func CopyMapForTest(m map[string]string) map[string]string {
	return copyMap(m)
}
