package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// GraphQLRequest is the POST body of a GraphQL call.
type GraphQLRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// GraphQLError is one entry of a GraphQL response's errors array.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// GraphQLResponse is the decoded response envelope. Data is only populated
// on success: an envelope with errors is always surfaced as a failure, even
// when partial data is present.
type GraphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

// GraphQL executes a GraphQL operation against url through the full request
// pipeline. An empty query fails before any network call; a non-empty
// errors array in the envelope fails with the full error list in Details.
func (c *Client) GraphQL(ctx context.Context, url string, req GraphQLRequest) (*GraphQLResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, c.fail(ctx, newValidationError("graphql query must be a non-empty string"))
	}
	req.Query = query

	resp, err := c.Request(ctx, &RequestConfig{
		Method:  "POST",
		URL:     url,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    req,
	})
	if err != nil {
		return nil, err
	}

	var envelope GraphQLResponse
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, c.fail(ctx, newValidationError(fmt.Sprintf("cannot decode graphql response: %v", err)))
	}

	if len(envelope.Errors) > 0 {
		return nil, c.fail(ctx, graphQLError(envelope.Errors))
	}

	return &envelope, nil
}

// GraphQLData decodes the data payload of a successful envelope into T.
func GraphQLData[T any](resp *GraphQLResponse) (T, error) {
	var out T
	if resp == nil {
		return out, newValidationError("cannot decode nil graphql response")
	}
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		return out, newValidationError(fmt.Sprintf("cannot decode graphql data: %v", err))
	}
	return out, nil
}

// graphQLError builds the canonical error for a failed envelope. The first
// entry is authoritative; the full array rides along in Details.
func graphQLError(errs []GraphQLError) *APIError {
	first := errs[0]

	e := &APIError{
		Type:    ErrorTypeGraphQL,
		Message: first.Message,
		Details: errs,
		Source:  SourceServer,
	}
	if len(first.Path) > 0 {
		e.Field = fmt.Sprintf("%v", first.Path[0])
	}
	if code, ok := first.Extensions["code"].(string); ok {
		e.Code = code
	}
	return e
}
