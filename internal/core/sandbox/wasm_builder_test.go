package sandbox

// 手工组装的最小 wasm 模块，用于在不构建 wasip1 访客的情况下测试 wazero 沙箱

var wasmHeader = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}

func sleb(v int32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func wasmName(s string) []byte {
	return append(uleb(uint32(len(s))), s...)
}

func section(id byte, content []byte) []byte {
	out := []byte{id}
	out = append(out, uleb(uint32(len(content)))...)
	return append(out, content...)
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// startOnlyModule 只有一个 _start 函数、不导入任何函数的模块
func startOnlyModule(body []byte) []byte {
	return concat(
		wasmHeader,
		section(1, []byte{0x01, 0x60, 0x00, 0x00}),
		section(3, []byte{0x01, 0x00}),
		section(7, concat([]byte{0x01}, wasmName("_start"), []byte{0x00, 0x00})),
		section(10, concat([]byte{0x01}, uleb(uint32(len(body))), body)),
	)
}

// exitModule _start 调用 proc_exit(code)
func exitModule(code int32) []byte {
	body := concat([]byte{0x00, 0x41}, sleb(code), []byte{0x10, 0x00, 0x0b})
	return concat(
		wasmHeader,
		section(1, []byte{0x02, 0x60, 0x01, 0x7f, 0x00, 0x60, 0x00, 0x00}),
		section(2, concat([]byte{0x01}, wasmName("wasi_snapshot_preview1"), wasmName("proc_exit"), []byte{0x00, 0x00})),
		section(3, []byte{0x01, 0x01}),
		section(7, concat([]byte{0x01}, wasmName("_start"), []byte{0x00, 0x01})),
		section(10, concat([]byte{0x01}, uleb(uint32(len(body))), body)),
	)
}

// trapModule _start 执行 unreachable
func trapModule() []byte {
	return startOnlyModule([]byte{0x00, 0x00, 0x0b})
}

// loopModule _start 死循环
func loopModule() []byte {
	return startOnlyModule([]byte{0x00, 0x03, 0x40, 0x0c, 0x00, 0x0b, 0x0b})
}

// writeModule _start 用 fd_write 把 payload 写到 stdout 后正常返回
//
// 内存布局：偏移 0 为 iovec{buf=16, len}，偏移 8 为 nwritten，偏移 16 起为 payload。
func writeModule(payload []byte) []byte {
	body := []byte{
		0x00,       // 无局部变量
		0x41, 0x01, // fd = 1
		0x41, 0x00, // iovs
		0x41, 0x01, // iovs_len
		0x41, 0x08, // nwritten
		0x10, 0x00, // call fd_write
		0x1a, // drop
		0x0b,
	}
	iovec := []byte{16, 0, 0, 0, 0, 0, 0, 0}
	n := uint32(len(payload))
	iovec[4], iovec[5], iovec[6], iovec[7] = byte(n), byte(n>>8), byte(n>>16), byte(n>>24)

	data := concat(
		[]byte{0x02},
		[]byte{0x00, 0x41}, sleb(0), []byte{0x0b}, uleb(uint32(len(iovec))), iovec,
		[]byte{0x00, 0x41}, sleb(16), []byte{0x0b}, uleb(n), payload,
	)
	return concat(
		wasmHeader,
		section(1, []byte{0x02, 0x60, 0x04, 0x7f, 0x7f, 0x7f, 0x7f, 0x01, 0x7f, 0x60, 0x00, 0x00}),
		section(2, concat([]byte{0x01}, wasmName("wasi_snapshot_preview1"), wasmName("fd_write"), []byte{0x00, 0x00})),
		section(3, []byte{0x01, 0x01}),
		section(5, []byte{0x01, 0x00, 0x01}),
		section(7, concat([]byte{0x02}, wasmName("memory"), []byte{0x02, 0x00}, wasmName("_start"), []byte{0x00, 0x01})),
		section(10, concat([]byte{0x01}, uleb(uint32(len(body))), body)),
		section(11, data),
	)
}
