package sandbox

// harnessScript wraps one generated code snippet. It reads a single JSON
// request from stdin, imports the namespace modules into the execution
// globals, execs the code, calls the entry point with the decoded artifacts,
// and writes exactly one JSON line to stdout. Every exception, including
// syntax errors raised by exec, is reported as {"ok": false, "error": ...,
// "traceback": ...} with a zero exit code.
const harnessScript = `import importlib
import json
import sys
import traceback


def _to_dataframe(spec):
    import pandas
    return pandas.DataFrame(
        {c: spec["data"][c] for c in spec["columns"]},
        columns=spec["columns"],
    )


def _from_dataframe(df):
    return {
        "columns": [str(c) for c in df.columns],
        "data": {str(c): df[c].tolist() for c in df.columns},
    }


def _to_figure(spec):
    import plotly.graph_objects
    return plotly.graph_objects.Figure(spec)


def _from_figure(fig):
    return json.loads(fig.to_json())


def _decode(kind, value):
    if kind == "table":
        return _to_dataframe(value)
    if kind == "tables":
        return {name: _to_dataframe(spec) for name, spec in value.items()}
    if kind == "figure":
        return _to_figure(value)
    raise ValueError("unknown argument kind: %s" % kind)


def _encode(kind, value):
    if kind == "table":
        return _from_dataframe(value)
    if kind == "tables":
        return {name: _from_dataframe(df) for name, df in value.items()}
    if kind == "figure":
        return _from_figure(value)
    raise ValueError("unknown return kind: %s" % kind)


def _run():
    request = json.load(sys.stdin)

    globals_ns = {}
    for alias, module in request.get("namespace", {}).items():
        globals_ns[alias] = importlib.import_module(module)

    args = [_decode(a["kind"], a["value"]) for a in request.get("args", [])]

    exec(request["code"], globals_ns)

    entry = globals_ns.get(request["entry"])
    if entry is None:
        raise NameError("generated code does not define %s" % request["entry"])

    return _encode(request["return"], entry(*args))


if __name__ == "__main__":
    try:
        print(json.dumps({"ok": True, "result": _run()}))
    except Exception as exc:
        print(json.dumps({
            "ok": False,
            "error": "%s: %s" % (type(exc).__name__, exc),
            "traceback": traceback.format_exc(),
        }))
`
