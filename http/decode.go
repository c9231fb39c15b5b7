package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// bodyReader 按Content-Type声明的字符集将请求体转换为UTF-8
func bodyReader(r *http.Request, body io.Reader) (io.Reader, *apiError) {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return body, nil
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, badRequest("invalid Content-Type", http.StatusUnsupportedMediaType)
	}
	if mediaType != "application/json" && !strings.HasSuffix(mediaType, "+json") {
		return nil, badRequest("Content-Type must be application/json", http.StatusUnsupportedMediaType)
	}

	charset := strings.ToLower(params["charset"])
	if charset == "" || charset == "utf-8" || charset == "utf8" {
		return body, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, badRequest("unsupported charset "+charset, http.StatusUnsupportedMediaType)
	}
	return transform.NewReader(body, enc.NewDecoder()), nil
}

// decodeObject 解析JSON对象，数字保留为json.Number
func decodeObject(r io.Reader) (map[string]any, *apiError) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, badRequest("request body too large", http.StatusRequestEntityTooLarge)
		}
		return nil, badRequest(detailBadJSON, http.StatusBadRequest)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, badRequest(detailBadJSON, http.StatusBadRequest)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, badRequest(detailBadJSON, http.StatusBadRequest)
	}
	return obj, nil
}

// decodeRequest 读取并解析预测请求
func (a *API) decodeRequest(w http.ResponseWriter, r *http.Request) (map[string]any, *apiError) {
	limited := http.MaxBytesReader(w, r.Body, a.maxBodyBytes)
	reader, aerr := bodyReader(r, limited)
	if aerr != nil {
		return nil, aerr
	}
	return decodeObject(reader)
}

func decodeMessage(message []byte) (map[string]any, *apiError) {
	return decodeObject(bytes.NewReader(message))
}
