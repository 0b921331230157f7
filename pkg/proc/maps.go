package proc

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
)

// parseMaps decodes the text format of /proc/<pid>/maps, e.g.:
//
//	00400000-00401000 r-xp 00000000 08:01 1234  /bin/cat
func parseMaps(data []byte) []MemoryRegion {
	var out []MemoryRegion
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		lohi := strings.SplitN(fields[0], "-", 2)
		if len(lohi) != 2 {
			continue
		}
		low, err1 := strconv.ParseUint(lohi[0], 16, 64)
		high, err2 := strconv.ParseUint(lohi[1], 16, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		perms := fields[1]
		r := MemoryRegion{
			Low:   low,
			High:  high,
			Read:  strings.Contains(perms, "r"),
			Write: strings.Contains(perms, "w"),
			Exec:  strings.Contains(perms, "x"),
		}
		if len(fields) >= 6 {
			r.Path = fields[5]
		}
		out = append(out, r)
	}
	return out
}
