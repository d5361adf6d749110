package preview

// clientScript keeps the page in sync with its server-side session: it
// forwards clicks and history moves and swaps the document body on render.
const clientScript = `(function() {
    'use strict';

    var ws = null;
    var reconnectDelay = 1000;

    function send(msg) {
        if (ws && ws.readyState === WebSocket.OPEN) {
            ws.send(JSON.stringify(msg));
            return true;
        }
        return false;
    }

    function connect() {
        var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
        var url = encodeURIComponent(location.pathname + location.search + location.hash);
        ws = new WebSocket(protocol + '//' + location.host + '/_carbon/ws?url=' + url);

        ws.onopen = function() {
            reconnectDelay = 1000;
        };

        ws.onmessage = function(e) {
            var msg;
            try {
                msg = JSON.parse(e.data);
            } catch (err) {
                return;
            }
            switch (msg.type) {
                case 'render':
                    var doc = new DOMParser().parseFromString(msg.html, 'text/html');
                    document.title = doc.title;
                    document.body.innerHTML = doc.body.innerHTML;
                    break;
                case 'push':
                    history.pushState(null, '', msg.url);
                    break;
                case 'assign':
                    location.assign(msg.url);
                    break;
                case 'error':
                    console.error('[carbon]', msg.error);
                    break;
            }
        };

        ws.onclose = function() {
            setTimeout(function() {
                reconnectDelay = Math.min(reconnectDelay * 2, 30000);
                connect();
            }, reconnectDelay);
        };
    }

    document.addEventListener('click', function(ev) {
        var a = ev.target.closest ? ev.target.closest('a[href]') : null;
        if (!a || ev.defaultPrevented) {
            return;
        }
        var modified = ev.button !== 0 || ev.metaKey || ev.ctrlKey || ev.shiftKey || ev.altKey;
        var target = a.getAttribute('target');
        if (modified || (target && target !== '_self') || a.hasAttribute('download')) {
            return;
        }
        var attrs = {};
        for (var i = 0; i < a.attributes.length; i++) {
            attrs[a.attributes[i].name] = a.attributes[i].value;
        }
        if (send({type: 'click', href: a.href, attrs: attrs})) {
            ev.preventDefault();
        }
    });

    window.addEventListener('popstate', function() {
        send({type: 'popstate', url: location.pathname + location.search + location.hash});
    });

    connect();
})();
`
