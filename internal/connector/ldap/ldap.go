// Package ldapconn implements the connector contract over an LDAP directory.
package ldapconn

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/sirupsen/logrus"

	"github.com/crossidm/idsync/internal/connector"
	"github.com/crossidm/idsync/internal/models"
)

const pageSize = 1000

// Config carries the directory endpoint and search scope for one system.
type Config struct {
	// URL is an ldap:// or ldaps:// endpoint passed to ldap.DialURL.
	URL    string
	BindDN string
	// BindPassword is kept in memory only; it never appears in logs.
	BindPassword string
	// BaseDN roots every search and anchors generated entry DNs.
	BaseDN string
	// UIDAttribute names the attribute used as the connector UID and as the
	// RDN of created entries. Defaults to "cn".
	UIDAttribute string
	SystemName   string
}

// Connector talks to a single LDAP directory. Each call dials a fresh
// connection; the directory is expected to sit close to the engine so the
// handshake cost stays negligible next to the sync work itself.
type Connector struct {
	cfg Config
	log *logrus.Logger
}

var _ connector.Connector = (*Connector)(nil)

// New creates an LDAP connector from the given config.
func New(cfg Config, log *logrus.Logger) *Connector {
	if cfg.UIDAttribute == "" {
		cfg.UIDAttribute = "cn"
	}
	return &Connector{cfg: cfg, log: log}
}

func (c *Connector) dial(ctx context.Context) (*ldap.Conn, error) {
	conn, err := ldap.DialURL(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetTimeout(time.Until(deadline))
	}
	if c.cfg.BindDN != "" {
		if err := conn.Bind(c.cfg.BindDN, c.cfg.BindPassword); err != nil {
			conn.Close()
			return nil, fmt.Errorf("bind as %s: %w", c.cfg.BindDN, err)
		}
	}
	return conn, nil
}

func (c *Connector) wrap(op string, err error) error {
	return &models.ConnectorError{System: c.cfg.SystemName, Op: op, Err: err}
}

// FetchObjects reads every entry of the object class under the base DN.
// LDAP has no usable changelog cursor in the general case, so the token is
// ignored and each snapshot is a full read.
func (c *Connector) FetchObjects(ctx context.Context, objectClass, _ string) (connector.Snapshot, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, c.wrap("fetch", err)
	}
	defer conn.Close()

	req := ldap.NewSearchRequest(
		c.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, 0, false,
		fmt.Sprintf("(objectClass=%s)", ldap.EscapeFilter(objectClass)),
		nil,
		nil,
	)

	res, err := conn.SearchWithPaging(req, pageSize)
	if err != nil {
		return nil, c.wrap("fetch", fmt.Errorf("search %s: %w", objectClass, err))
	}

	objects := make([]connector.Object, 0, len(res.Entries))
	for _, entry := range res.Entries {
		obj := connector.Object{Attributes: make(map[string]any, len(entry.Attributes))}
		for _, attr := range entry.Attributes {
			if len(attr.Values) == 1 {
				obj.Attributes[attr.Name] = attr.Values[0]
			} else {
				vals := make([]any, len(attr.Values))
				for i, v := range attr.Values {
					vals[i] = v
				}
				obj.Attributes[attr.Name] = vals
			}
		}
		obj.UID = entry.GetAttributeValue(c.cfg.UIDAttribute)
		if obj.UID == "" {
			obj.UID = entry.DN
		}
		objects = append(objects, obj)
	}

	c.log.WithFields(logrus.Fields{
		"system":       c.cfg.SystemName,
		"object_class": objectClass,
		"entries":      len(objects),
	}).Debug("ldap snapshot read")

	return &snapshot{objects: objects}, nil
}

// CreateObject adds an entry with the UID attribute as its RDN.
func (c *Connector) CreateObject(ctx context.Context, objectClass, uid string, attributes map[string]any) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return c.wrap("create", err)
	}
	defer conn.Close()

	req := ldap.NewAddRequest(c.entryDN(uid), nil)
	req.Attribute("objectClass", []string{objectClass})
	req.Attribute(c.cfg.UIDAttribute, []string{uid})
	for name, value := range attributes {
		if name == c.cfg.UIDAttribute {
			continue
		}
		if vals := attributeValues(value); len(vals) > 0 {
			req.Attribute(name, vals)
		}
	}
	if err := conn.Add(req); err != nil {
		return c.wrap("create", fmt.Errorf("add %s: %w", uid, err))
	}
	return nil
}

// UpdateObject replaces the given attributes on an existing entry. An empty
// value deletes the attribute.
func (c *Connector) UpdateObject(ctx context.Context, objectClass, uid string, attributes map[string]any) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return c.wrap("update", err)
	}
	defer conn.Close()

	dn, err := c.resolveDN(conn, objectClass, uid)
	if err != nil {
		return c.wrap("update", err)
	}

	req := ldap.NewModifyRequest(dn, nil)
	for name, value := range attributes {
		if name == c.cfg.UIDAttribute {
			continue
		}
		if vals := attributeValues(value); len(vals) > 0 {
			req.Replace(name, vals)
		} else {
			req.Delete(name, []string{})
		}
	}
	if err := conn.Modify(req); err != nil {
		return c.wrap("update", fmt.Errorf("modify %s: %w", uid, err))
	}
	return nil
}

// DeleteObject removes the entry identified by the UID.
func (c *Connector) DeleteObject(ctx context.Context, objectClass, uid string) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return c.wrap("delete", err)
	}
	defer conn.Close()

	dn, err := c.resolveDN(conn, objectClass, uid)
	if err != nil {
		return c.wrap("delete", err)
	}
	if err := conn.Del(ldap.NewDelRequest(dn, nil)); err != nil {
		return c.wrap("delete", fmt.Errorf("del %s: %w", uid, err))
	}
	return nil
}

// resolveDN looks the entry up by UID attribute rather than assuming the
// generated RDN layout, so entries created outside the engine still resolve.
func (c *Connector) resolveDN(conn *ldap.Conn, objectClass, uid string) (string, error) {
	req := ldap.NewSearchRequest(
		c.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		2, 0, false,
		fmt.Sprintf("(&(objectClass=%s)(%s=%s))",
			ldap.EscapeFilter(objectClass), c.cfg.UIDAttribute, ldap.EscapeFilter(uid)),
		[]string{"dn"},
		nil,
	)
	res, err := conn.Search(req)
	if err != nil {
		return "", fmt.Errorf("lookup %s: %w", uid, err)
	}
	switch len(res.Entries) {
	case 0:
		return "", fmt.Errorf("lookup %s: %w", uid, models.ErrAccountNotFound)
	case 1:
		return res.Entries[0].DN, nil
	default:
		return "", fmt.Errorf("lookup %s: %w", uid, models.ErrTooManySystemEntities)
	}
}

func (c *Connector) entryDN(uid string) string {
	return fmt.Sprintf("%s=%s,%s", c.cfg.UIDAttribute, ldap.EscapeDN(uid), c.cfg.BaseDN)
}

func attributeValues(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []string:
		return v
	case []any:
		vals := make([]string, 0, len(v))
		for _, item := range v {
			vals = append(vals, fmt.Sprint(item))
		}
		return vals
	case bool:
		return []string{strings.ToUpper(fmt.Sprint(v))}
	default:
		return []string{fmt.Sprint(v)}
	}
}

type snapshot struct {
	objects []connector.Object
	pos     int
}

func (s *snapshot) Next(ctx context.Context) (connector.Object, bool) {
	if ctx.Err() != nil || s.pos >= len(s.objects) {
		return connector.Object{}, false
	}
	obj := s.objects[s.pos]
	s.pos++
	return obj, true
}

func (s *snapshot) Err() error { return nil }

// Token is empty: LDAP snapshots are always full reads.
func (s *snapshot) Token() string { return "" }
