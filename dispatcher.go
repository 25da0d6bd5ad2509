package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
)

// Dispatcher routes an operation name plus arguments to one upstream call
// and shapes the answer into an Envelope. Expected failures come back as
// Envelopes; the error return is reserved for faults nobody planned for.
type Dispatcher struct {
	upstream Upstream
	ops      map[string]*Operation
	names    []string
}

func NewDispatcher(upstream Upstream, ops []*Operation) *Dispatcher {
	d := &Dispatcher{upstream: upstream, ops: make(map[string]*Operation, len(ops))}
	for _, op := range ops {
		d.ops[op.Name] = op
	}
	d.names = sortedOperationNames(d.ops)
	return d
}

func (d *Dispatcher) Lookup(name string) (*Operation, bool) {
	op, ok := d.ops[name]
	return op, ok
}

// Operations returns the table sorted by name.
func (d *Dispatcher) Operations() []*Operation {
	out := make([]*Operation, 0, len(d.names))
	for _, name := range d.names {
		out = append(out, d.ops[name])
	}
	return out
}

func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any) (Envelope, error) {
	op, ok := d.ops[name]
	if !ok {
		return failEnvelope("Unknown operation: " + name), nil
	}
	values, usage := bindArguments(op, args)
	if usage != "" {
		return failEnvelope(usage), nil
	}

	var (
		env Envelope
		err error
	)
	switch op.Kind {
	case kindList:
		env, err = d.list(ctx, op, values)
	case kindGet:
		env, err = d.get(ctx, op, values)
	case kindCreate:
		env, err = d.create(ctx, op, values)
	case kindUpdate:
		env, err = d.update(ctx, op, values)
	case kindDelete:
		env, err = d.remove(ctx, op, values)
	case kindSetStatus:
		env, err = d.setStatus(ctx, op, values)
	case kindSiteInfo:
		env, err = d.siteInfo(ctx, op)
	case kindSearch:
		env, err = d.search(ctx, op, values)
	case kindFetch:
		env, err = d.fetch(ctx, values)
	default:
		return Envelope{}, fmt.Errorf("operation %s: unhandled kind %v", op.Name, op.Kind)
	}
	if err != nil {
		if msg, ok := upstreamFailure(err); ok {
			log.Printf("<dispatch> %s failed: %s", op.Name, msg)
			return failEnvelope(msg), nil
		}
		return Envelope{}, fmt.Errorf("%s: %w", op.Name, err)
	}
	return env, nil
}

// upstreamFailure reports whether err is an expected upstream or transport
// failure, and its envelope message.
func upstreamFailure(err error) (string, bool) {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.Error(), true
	}
	var trErr *TransportError
	if errors.As(err, &trErr) {
		return trErr.Error(), true
	}
	return "", false
}

// bindArguments validates and coerces args against the operation, applying
// defaults. A non-empty second result is a usage error message.
func bindArguments(op *Operation, args map[string]any) (map[string]any, string) {
	values := make(map[string]any, len(op.Args))
	for _, a := range op.Args {
		raw, present := args[a.Name]
		if present && raw == nil {
			present = false
		}
		if !present {
			if a.Required {
				return nil, "Missing required argument: " + a.Name
			}
			if a.Default != nil {
				values[a.Name] = a.Default
			}
			continue
		}
		v, err := coerceArgument(a, raw)
		if err != nil {
			return nil, fmt.Sprintf("Invalid argument %s: %v", a.Name, err)
		}
		values[a.Name] = v
	}
	return values, ""
}

func coerceArgument(a Argument, raw any) (any, error) {
	switch a.Type {
	case argInt:
		n, err := coerceInt(raw)
		if err != nil {
			return nil, errNotInteger
		}
		if a.Min != 0 && n < a.Min {
			n = a.Min
		}
		if a.Max != 0 && n > a.Max {
			n = a.Max
		}
		return n, nil
	case argBool:
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return nil, errors.New("expected a boolean")
		}
		return b, nil
	case argIntList:
		if s, ok := raw.(string); ok {
			raw = splitList(s)
		}
		list, err := coerceIntList(raw)
		if err != nil {
			return nil, errors.New("expected a list of integers")
		}
		return list, nil
	default:
		s, err := cast.ToStringE(raw)
		if err != nil {
			return nil, errors.New("expected a string")
		}
		if len(a.Enum) > 0 && s != "" && !slices.Contains(a.Enum, s) {
			return nil, fmt.Errorf("must be one of %s", strings.Join(a.Enum, ", "))
		}
		return s, nil
	}
}

var errNotInteger = errors.New("expected an integer")

// coerceInt accepts base-10 strings and integral numbers only; "010" is 10
// and 7.9 is rejected.
func coerceInt(raw any) (int, error) {
	switch v := raw.(type) {
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	case json.Number:
		if n, err := strconv.Atoi(v.String()); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, errNotInteger
		}
		return integralFloat(f)
	case float64:
		return integralFloat(v)
	case float32:
		return integralFloat(float64(v))
	case bool:
		return 0, errNotInteger
	}
	return cast.ToIntE(raw)
}

func integralFloat(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, errNotInteger
	}
	return int(f), nil
}

func coerceIntList(raw any) ([]int, error) {
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, errNotInteger
	}
	out := make([]int, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		n, err := coerceInt(rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isZeroValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		return rv.Len() == 0
	}
	return rv.IsZero()
}

func formatQueryValue(v any) string {
	switch val := v.(type) {
	case []int:
		parts := make([]string, len(val))
		for i, n := range val {
			parts[i] = strconv.Itoa(n)
		}
		return strings.Join(parts, ",")
	default:
		return cast.ToString(v)
	}
}

// buildRequest expands the path template and splits values into query and
// body. Optional values that are empty are left out so upstream defaults
// apply; booleans in the query are always sent.
func buildRequest(op *Operation, values map[string]any) UpstreamRequest {
	req := UpstreamRequest{Method: op.Method, Path: op.Path, Query: url.Values{}}
	body := make(map[string]any)
	for _, a := range op.Args {
		v, ok := values[a.Name]
		if !ok {
			continue
		}
		switch a.Place {
		case inPath:
			req.Path = strings.ReplaceAll(req.Path, "{"+a.Name+"}", formatQueryValue(v))
		case inQuery:
			if !a.Required && a.Type != argBool && isZeroValue(v) {
				continue
			}
			req.Query.Set(a.param(), formatQueryValue(v))
		case inBody:
			if !a.Required && isZeroValue(v) {
				continue
			}
			body[a.param()] = v
		}
	}
	if len(body) > 0 {
		req.Body = body
	}
	return req
}

func idValue(values map[string]any, name string) int {
	n, _ := values[name].(int)
	return n
}

func (d *Dispatcher) list(ctx context.Context, op *Operation, values map[string]any) (Envelope, error) {
	resp, err := d.upstream.Send(ctx, buildRequest(op, values))
	if err != nil {
		return Envelope{}, err
	}
	data := resp.JSON()
	if !data.IsArray() {
		return Envelope{}, fmt.Errorf("expected a JSON array from %s", op.Path)
	}
	items := make([]map[string]any, 0)
	data.ForEach(func(_, item gjson.Result) bool {
		items = append(items, op.Resource.Summary(item))
		return true
	})
	count := len(items)
	fields := map[string]any{
		"items":    items,
		"count":    count,
		"total":    headerCount(resp.Header, "X-WP-Total", count),
		"page":     values["page"],
		"per_page": values["per_page"],
	}
	if pages := headerCount(resp.Header, "X-WP-TotalPages", 0); pages > 0 {
		fields["total_pages"] = pages
	}
	return okEnvelope(fmt.Sprintf("Retrieved %d %s", count, op.Resource.Plural), fields), nil
}

// headerCount parses a pagination header, never returning less than floor.
func headerCount(h http.Header, key string, floor int) int {
	n, err := strconv.Atoi(strings.TrimSpace(h.Get(key)))
	if err != nil || n < floor {
		return floor
	}
	return n
}

func (d *Dispatcher) get(ctx context.Context, op *Operation, values map[string]any) (Envelope, error) {
	r := op.Resource
	id := idValue(values, r.IDArg)
	slug, _ := values["slug"].(string)

	var item gjson.Result
	switch {
	case id > 0:
		resp, err := d.upstream.Send(ctx, buildRequest(op, values))
		if err != nil {
			return Envelope{}, err
		}
		item = resp.JSON()
	case slug != "":
		resp, err := d.upstream.Send(ctx, UpstreamRequest{
			Method: http.MethodGet,
			Path:   r.collectionPath(),
			Query:  url.Values{"slug": {slug}},
		})
		if err != nil {
			return Envelope{}, err
		}
		matches := resp.JSON().Array()
		if len(matches) == 0 {
			return failEnvelope(r.Singular + " not found"), nil
		}
		item = matches[0]
	default:
		return failEnvelope("Provide " + r.IDArg + " or slug"), nil
	}

	shaped := r.Detail(item)
	return okEnvelope(fmt.Sprintf("%s %d retrieved", r.Singular, item.Get("id").Int()), map[string]any{r.Key: shaped}), nil
}

func (d *Dispatcher) create(ctx context.Context, op *Operation, values map[string]any) (Envelope, error) {
	r := op.Resource
	resp, err := d.upstream.Send(ctx, buildRequest(op, values))
	if err != nil {
		return Envelope{}, err
	}
	data := resp.JSON()
	fields := map[string]any{r.IDArg: data.Get("id").Int()}
	label, _ := values["title"].(string)
	if r.Term {
		label, _ = values["name"].(string)
		fields["name"] = data.Get("name").String()
		fields["slug"] = data.Get("slug").String()
	} else {
		fields["url"] = data.Get("link").String()
	}
	return okEnvelope(fmt.Sprintf("%s '%s' created successfully", r.Singular, label), fields), nil
}

func (d *Dispatcher) update(ctx context.Context, op *Operation, values map[string]any) (Envelope, error) {
	r := op.Resource
	req := buildRequest(op, values)
	if req.Body == nil {
		return failEnvelope("No fields to update"), nil
	}
	resp, err := d.upstream.Send(ctx, req)
	if err != nil {
		return Envelope{}, err
	}
	data := resp.JSON()
	id := idValue(values, r.IDArg)
	return okEnvelope(fmt.Sprintf("%s %d updated successfully", r.Singular, id), map[string]any{
		r.IDArg: id,
		"url":   data.Get("link").String(),
	}), nil
}

func (d *Dispatcher) remove(ctx context.Context, op *Operation, values map[string]any) (Envelope, error) {
	r := op.Resource
	if _, err := d.upstream.Send(ctx, buildRequest(op, values)); err != nil {
		return Envelope{}, err
	}
	id := idValue(values, r.IDArg)
	action := "moved to trash"
	if force, _ := values["force"].(bool); force {
		action = "deleted permanently"
	}
	return okEnvelope(fmt.Sprintf("%s %d %s", r.Singular, id, action), map[string]any{r.IDArg: id}), nil
}

func (d *Dispatcher) setStatus(ctx context.Context, op *Operation, values map[string]any) (Envelope, error) {
	r := op.Resource
	req := buildRequest(op, values)
	req.Body = map[string]any{"status": op.TargetStatus}
	resp, err := d.upstream.Send(ctx, req)
	if err != nil {
		return Envelope{}, err
	}
	id := idValue(values, r.IDArg)
	fields := map[string]any{r.IDArg: id, "status": op.TargetStatus}
	if link := resp.JSON().Get("link").String(); link != "" {
		fields["url"] = link
	}
	return okEnvelope(fmt.Sprintf("%s %d %s", r.Singular, id, op.StatusVerb), fields), nil
}

func (d *Dispatcher) siteInfo(ctx context.Context, op *Operation) (Envelope, error) {
	resp, err := d.upstream.Send(ctx, UpstreamRequest{Method: op.Method, Path: op.Path})
	if err != nil {
		return Envelope{}, err
	}
	return okEnvelope("Site information retrieved", map[string]any{"site": shapeSiteInfo(resp.JSON())}), nil
}
