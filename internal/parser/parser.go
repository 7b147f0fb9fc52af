// Package parser extracts structured fields from the two fixed syslog-style
// line formats the ingest endpoint accepts (firewall and network device logs).
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var firewallRe = regexp.MustCompile(`^<\d+>(?P<time>\w+\s+\d+\s+\d{2}:\d{2}:\d{2})\s+(?P<hostname>\S+)\s+vendor=(?P<vendor>\S+)\s+product=(?P<product>\S+)\s+action=(?P<action>\S+)\s+src=(?P<src>\S+)\s+dst=(?P<dst>\S+)\s+spt=(?P<spt>\d+)\s+dpt=(?P<dpt>\d+)\s+proto=(?P<proto>\S+)\s+msg=(?P<msg>.*?)\s+policy=(?P<policy>\S+)$`)

var networkRe = regexp.MustCompile(`^<\d+>(?P<time>\w+\s+\d+\s+\d{2}:\d{2}:\d{2})\s+(?P<hostname>\S+)\s+if=(?P<interface>\S+)\s+event=(?P<event>\S+)\s+mac=(?P<mac>\S+)\s+reason=(?P<reason>.+)$`)

// Fields is the result of parsing one line. Values are strings except
// "spt"/"dpt" (int) and "@timestamp" (RFC 3339 string).
type Fields map[string]any

// ParseFirewallLine parses one firewall syslog line. A line that does not
// match the expected format yields exactly {"raw_log": line}: missing fields
// mean "unknown" downstream, not a parse failure.
func ParseFirewallLine(line string) Fields {
	m := firewallRe.FindStringSubmatch(line)
	if m == nil {
		return Fields{"raw_log": line}
	}

	f := namedGroups(firewallRe, m)
	f["raw_log"] = line
	if ts := parseSyslogTime(f["time"].(string)); ts != "" {
		f["@timestamp"] = ts
	}
	for _, k := range []string{"spt", "dpt"} {
		if s, ok := f[k].(string); ok {
			if n, err := strconv.Atoi(s); err == nil {
				f[k] = n
			}
		}
	}
	return f
}

// ParseNetworkLine parses one network device syslog line, with the same
// silent-degradation policy as ParseFirewallLine.
func ParseNetworkLine(line string) Fields {
	m := networkRe.FindStringSubmatch(line)
	if m == nil {
		return Fields{"raw_log": line}
	}

	f := namedGroups(networkRe, m)
	f["raw_log"] = line
	if ts := parseSyslogTime(f["time"].(string)); ts != "" {
		f["@timestamp"] = ts
	}
	return f
}

func namedGroups(re *regexp.Regexp, match []string) Fields {
	f := Fields{}
	for i, name := range re.SubexpNames() {
		if name != "" {
			f[name] = match[i]
		}
	}
	return f
}

// parseSyslogTime converts "Jan  2 15:04:05" into RFC 3339 UTC, assuming the
// current year since the syslog timestamp format carries none. Returns ""
// if the timestamp cannot be parsed.
func parseSyslogTime(s string) string {
	year := time.Now().UTC().Year()
	t, err := time.Parse("Jan _2 15:04:05 2006", fmt.Sprintf("%s %d", s, year))
	if err != nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
