// SPDX-License-Identifier: GPL-3.0-or-later
package imapconnection

func uidList(values ...int) []uint32 {
	list := make([]uint32, 0, len(values))
	for _, v := range values {
		list = append(list, uint32(v))
	}
	return list
}
