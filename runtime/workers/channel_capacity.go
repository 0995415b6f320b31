package workers

import "reflect"

type NamedChannel struct {
	Name    string
	Channel any
}

type ChannelFill struct {
	Name     string
	Length   int
	Capacity int
}

// MeasureChannels reads len and cap of each channel.
// Reading len(channel) and cap(channel) is non-blocking, so this won't interfere
// with the goroutines using them. Values that are not channels are skipped.
func MeasureChannels(channels []NamedChannel) []ChannelFill {
	res := make([]ChannelFill, 0, len(channels))
	for _, nc := range channels {
		v := reflect.ValueOf(nc.Channel)
		if v.Kind() != reflect.Chan {
			continue
		}
		res = append(res, ChannelFill{Name: nc.Name, Length: v.Len(), Capacity: v.Cap()})
	}
	return res
}
