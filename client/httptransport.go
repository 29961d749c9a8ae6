package client

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/foomo/filebackup/pkg/handler"
	"github.com/foomo/filebackup/responses"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type httpTransport struct {
	client   *http.Client
	endpoint string
}

// NewHTTPTransport will create a new http transport for the given server and client.
// Caution: the provided server url is not validated!
func NewHTTPTransport(server string, client *http.Client) transport {
	return &httpTransport{
		endpoint: server,
		client:   client,
	}
}

func (ht *httpTransport) shutdown() {
	ht.client.CloseIdleConnections()
}

func (ht *httpTransport) call(ctx context.Context, route handler.Route, request interface{}, response interface{}) error {
	requestBytes, err := json.Marshal(request)
	if err != nil {
		return errors.Wrap(err, "failed to encode request")
	}
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		ht.endpoint+"/"+string(route),
		bytes.NewBuffer(requestBytes),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	httpResponse, err := ht.client.Do(req)
	if err != nil {
		return err
	}
	defer httpResponse.Body.Close()

	responseBytes, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}

	if httpResponse.StatusCode != http.StatusOK {
		serverErr := &responses.Error{}
		if err := decodeReply(responseBytes, serverErr); err != nil || serverErr.Message == "" {
			return errors.Errorf("non 200 reply: %d", httpResponse.StatusCode)
		}
		return serverErr
	}
	return decodeReply(responseBytes, response)
}

// decodeReply unwraps the {"reply": ...} envelope into v
func decodeReply(data []byte, v interface{}) error {
	var envelope struct {
		Reply jsoniter.RawMessage `json:"reply"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return errors.Wrap(err, "failed to decode reply")
	}
	return errors.Wrap(json.Unmarshal(envelope.Reply, v), "failed to decode reply")
}
